// Package ratelimit bounds the rate of outbound requests with a sliding window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// ErrInvalidRate is returned for a non-positive rate.
var ErrInvalidRate = errors.New("rate must be positive")

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *SlidingWindow) {
		w.now = now
	}
}

// WithSleep replaces the timer-based sleep.
func WithSleep(sleep SleepFunc) Option {
	return func(w *SlidingWindow) {
		w.sleep = sleep
	}
}

// WithWindow changes the window length from one second.
func WithWindow(window time.Duration) Option {
	return func(w *SlidingWindow) {
		w.window = window
	}
}

// SlidingWindow admits at most rate requests in any trailing window. It keeps
// the issue time of every admitted request still inside the window.
type SlidingWindow struct {
	mu     sync.Mutex
	rate   int
	window time.Duration
	issued []time.Time

	now   func() time.Time
	sleep SleepFunc
}

// NewSlidingWindow creates a limiter admitting rate requests per window.
func NewSlidingWindow(rate int, opts ...Option) (*SlidingWindow, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}

	limiter := &SlidingWindow{
		rate:   rate,
		window: constants.RateLimitWindow,
		now:    time.Now,
		sleep:  Sleep,
	}

	for _, opt := range opts {
		opt(limiter)
	}

	limiter.issued = make([]time.Time, 0, rate)

	return limiter, nil
}

// Wait blocks until a request may be issued, then records it. It returns
// ctx.Err() if the context ends first; nothing is recorded in that case.
func (w *SlidingWindow) Wait(ctx context.Context) error {
	for {
		err := ctx.Err()
		if err != nil {
			return err
		}

		wait := w.tryAdmit()
		if wait <= 0 {
			return nil
		}

		err = w.sleep(ctx, wait)
		if err != nil {
			return err
		}
	}
}

// tryAdmit records a request and returns zero, or returns how long to wait
// before the oldest request leaves the window.
func (w *SlidingWindow) tryAdmit() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	if len(w.issued) < w.rate {
		w.issued = append(w.issued, now)

		return 0
	}

	wait := w.issued[0].Add(w.window).Sub(now)
	if wait <= 0 {
		// Clock granularity; evict will drop it on the next pass.
		wait = time.Nanosecond
	}

	return wait
}

func (w *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-w.window)

	drop := 0
	for drop < len(w.issued) && !w.issued[drop].After(cutoff) {
		drop++
	}

	if drop > 0 {
		w.issued = append(w.issued[:0], w.issued[drop:]...)
	}
}

// SetRate changes the rate and starts a fresh window.
func (w *SlidingWindow) SetRate(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rate = rate
	w.issued = make([]time.Time, 0, rate)

	return nil
}

// Rate returns the admissions allowed per window.
func (w *SlidingWindow) Rate() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.rate
}

// InWindow returns how many admissions fall inside the current window.
func (w *SlidingWindow) InWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(w.now())

	return len(w.issued)
}

// Sleep waits on a timer and honours cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
