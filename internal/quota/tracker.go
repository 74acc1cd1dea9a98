// Package quota counts requests against Autotask's hourly per-database
// request threshold.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// warningLevels are the usage fractions logged once per bucket.
var warningLevels = []float64{0.5, 0.75, 0.9}

// Usage is a snapshot of the current bucket.
type Usage = autotask.QuotaUsage

// Tracker admits requests while the current hourly bucket is under threshold.
type Tracker struct {
	store  autotask.QuotaStore
	prefix string
	logger autotask.Logger
	now    func() time.Time

	mu        sync.Mutex
	threshold int64
	warned    map[string]int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets where usage warnings go.
func WithLogger(logger autotask.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithKeyPrefix namespaces counters, typically by API user, so several
// databases can share one store.
func WithKeyPrefix(prefix string) Option {
	return func(t *Tracker) { t.prefix = prefix }
}

// New creates a tracker. A non-positive threshold uses the Autotask default.
func New(store autotask.QuotaStore, threshold int64, opts ...Option) *Tracker {
	if threshold <= 0 {
		threshold = constants.DefaultHourlyThreshold
	}

	tracker := &Tracker{
		store:     store,
		prefix:    "default",
		logger:    autotask.NoopLogger{},
		now:       time.Now,
		threshold: threshold,
		warned:    make(map[string]int),
	}

	for _, opt := range opts {
		opt(tracker)
	}

	return tracker
}

// Admit counts one request. Once the bucket is over threshold it returns a
// RateLimit error whose RetryAfter is the time left until the bucket resets.
func (t *Tracker) Admit(ctx context.Context) error {
	now := t.now()
	key, resetsAt := t.bucket(now)

	used, err := t.store.Increment(ctx, key, constants.QuotaWindow)
	if err != nil {
		return fmt.Errorf("counting request against hourly quota: %w", err)
	}

	threshold := t.Threshold()
	if used > threshold {
		return &autotask.Error{
			Kind:       autotask.KindRateLimit,
			Message:    fmt.Sprintf("hourly request threshold of %d reached", threshold),
			RetryAfter: resetsAt.Sub(now),
			Timestamp:  now,
		}
	}

	t.warn(key, used, threshold, resetsAt)

	return nil
}

// Usage returns the current bucket's counters.
func (t *Tracker) Usage(ctx context.Context) (Usage, error) {
	key, resetsAt := t.bucket(t.now())

	used, err := t.store.Get(ctx, key)
	if err != nil {
		return Usage{}, fmt.Errorf("reading hourly quota: %w", err)
	}

	threshold := t.Threshold()

	remaining := threshold - used
	if remaining < 0 {
		remaining = 0
	}

	return Usage{
		Used:      used,
		Threshold: threshold,
		Remaining: remaining,
		Percent:   float64(used) / float64(threshold) * constants.PercentageMultiplier,
		ResetsAt:  resetsAt,
	}, nil
}

// SyncFromServer adopts the server's threshold and current count, which
// include requests made by other integrations on the same database.
func (t *Tracker) SyncFromServer(ctx context.Context, info autotask.ThresholdInfo) error {
	if info.ExternalRequestThreshold > 0 {
		t.mu.Lock()
		t.threshold = int64(info.ExternalRequestThreshold)
		t.mu.Unlock()
	}

	key, _ := t.bucket(t.now())

	err := t.store.Set(ctx, key, int64(info.CurrentTimeframeRequestCount), constants.QuotaWindow)
	if err != nil {
		return fmt.Errorf("storing server request count: %w", err)
	}

	return nil
}

// Threshold returns the hourly limit in force.
func (t *Tracker) Threshold() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.threshold
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	return t.store.Close()
}

func (t *Tracker) bucket(now time.Time) (string, time.Time) {
	start := now.UTC().Truncate(constants.QuotaWindow)

	return t.prefix + ":" + start.Format("2006010215"), start.Add(constants.QuotaWindow)
}

func (t *Tracker) warn(key string, used, threshold int64, resetsAt time.Time) {
	fraction := float64(used) / float64(threshold)

	level := 0
	for i, limit := range warningLevels {
		if fraction >= limit {
			level = i + 1
		}
	}

	t.mu.Lock()
	if level <= t.warned[key] {
		t.mu.Unlock()

		return
	}

	t.warned[key] = level

	for bucketKey := range t.warned {
		if bucketKey != key {
			delete(t.warned, bucketKey)
		}
	}
	t.mu.Unlock()

	t.logger.Warn("Autotask hourly request threshold usage", map[string]interface{}{
		"used":      used,
		"threshold": threshold,
		"percent":   fraction * constants.PercentageMultiplier,
		"resets_at": resetsAt.Format(time.RFC3339),
	})
}
