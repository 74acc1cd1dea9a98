// Package executor runs API calls with rate limiting, per-attempt timeouts,
// classified retries and one performance sample per call.
package executor

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/internal/ratelimit"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// State is where a call is in its lifecycle.
type State string

// Call states. A call moves Pending -> Success, Pending -> Failed, or
// Pending -> RetryScheduled -> Pending.
const (
	StatePending        State = "pending"
	StateRetryScheduled State = "retry_scheduled"
	StateSuccess        State = "success"
	StateFailed         State = "failed"
)

// RequestContext identifies one logical call across its attempts.
type RequestContext struct {
	RequestID string
	Endpoint  string
	Method    string
	StartTime time.Time
	Attempt   int
	State     State
}

// Limiter admits outbound requests.
type Limiter interface {
	Wait(ctx context.Context) error
}

// QuotaGuard counts requests against the hourly threshold.
type QuotaGuard interface {
	Admit(ctx context.Context) error
}

// Recorder receives one timing per completed call.
type Recorder interface {
	RecordRequest(timing autotask.Timing)
}

// Config holds the retry and observability settings.
type Config struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Timeout   time.Duration

	LogRequests   bool
	LogResponses  bool
	RecordMetrics bool
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		Retries:       constants.DefaultRetries,
		BaseDelay:     constants.DefaultBaseDelay,
		MaxDelay:      constants.DefaultMaxDelay,
		Timeout:       constants.DefaultHTTPTimeout,
		LogRequests:   true,
		LogResponses:  true,
		RecordMetrics: true,
	}
}

// Executor runs calls. It is safe for concurrent use; each call keeps its
// own attempt counter.
type Executor struct {
	cfg      Config
	limiter  Limiter
	quota    QuotaGuard
	recorder Recorder
	logger   autotask.Logger

	sleep  ratelimit.SleepFunc
	random func() float64
	now    func() time.Time
	newID  func() string
}

// Option configures an Executor.
type Option func(*Executor)

// WithLimiter sets the rate limiter consulted before every attempt.
func WithLimiter(limiter Limiter) Option {
	return func(e *Executor) { e.limiter = limiter }
}

// WithQuota sets the hourly quota guard consulted before every attempt.
func WithQuota(quota QuotaGuard) Option {
	return func(e *Executor) { e.quota = quota }
}

// WithRecorder sets where call timings go.
func WithRecorder(recorder Recorder) Option {
	return func(e *Executor) { e.recorder = recorder }
}

// WithLogger sets the logger.
func WithLogger(logger autotask.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithSleep replaces the backoff sleep.
func WithSleep(sleep ratelimit.SleepFunc) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// WithRandom replaces the jitter source.
func WithRandom(random func() float64) Option {
	return func(e *Executor) { e.random = random }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Executor) { e.newID = newID }
}

// New creates an executor.
func New(cfg Config, opts ...Option) *Executor {
	exec := &Executor{
		cfg:    cfg,
		logger: autotask.NoopLogger{},
		sleep:  ratelimit.Sleep,
		random: rand.Float64,
		now:    time.Now,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(exec)
	}

	return exec
}

type callOptions struct {
	retries int
	timeout time.Duration
}

// CallOption overrides executor settings for one call.
type CallOption func(*callOptions)

// WithRetries overrides the retry count.
func WithRetries(retries int) CallOption {
	return func(o *callOptions) {
		if retries >= 0 {
			o.retries = retries
		}
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(timeout time.Duration) CallOption {
	return func(o *callOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// Call performs one HTTP attempt.
type Call func(ctx context.Context) (*autotask.ResponseEnvelope, error)

// Execute runs call until it succeeds, fails with a non-retryable error, or
// runs out of attempts. A non-2xx envelope returned without an error is
// treated as a failure.
func (e *Executor) Execute(ctx context.Context, call Call, endpoint, method string, opts ...CallOption) (*autotask.ResponseEnvelope, error) {
	return Do(ctx, e, endpoint, method, func(ctx context.Context) (*autotask.ResponseEnvelope, error) {
		resp, err := call(ctx)
		if err != nil {
			return resp, err
		}

		if classified := autotask.ClassifyResponse(resp, endpoint, method); classified != nil {
			return resp, classified
		}

		return resp, nil
	}, opts...)
}

// Do runs fn under the executor's retry policy and returns its result.
func Do[T any](ctx context.Context, e *Executor, endpoint, method string, fn func(ctx context.Context) (T, error), opts ...CallOption) (T, error) {
	var zero T

	options := callOptions{retries: e.cfg.Retries, timeout: e.cfg.Timeout}
	for _, opt := range opts {
		opt(&options)
	}

	rc := &RequestContext{
		RequestID: e.newID(),
		Endpoint:  endpoint,
		Method:    method,
		StartTime: e.now(),
		State:     StatePending,
	}
	ctx = autotask.WithRequestID(ctx, rc.RequestID)

	for attempt := 1; ; attempt++ {
		rc.Attempt = attempt
		rc.State = StatePending

		err := e.admit(ctx)
		if err != nil {
			return zero, e.fail(rc, e.classify(err, rc))
		}

		e.logStart(rc)

		attemptStart := e.now()
		result, err := runAttempt(ctx, options.timeout, fn)

		if err == nil {
			rc.State = StateSuccess
			e.logSuccess(rc, e.now().Sub(attemptStart))
			e.record(rc, true, "")

			return result, nil
		}

		classified := e.classify(err, rc)

		// The caller gave up; further attempts would fail the same way.
		if ctx.Err() != nil || !autotask.ShouldRetry(classified.Kind, attempt, options.retries) {
			return zero, e.fail(rc, classified)
		}

		delay := RetryDelay(classified, attempt, e.cfg.BaseDelay, e.cfg.MaxDelay, e.random())
		rc.State = StateRetryScheduled
		e.logRetry(rc, classified, delay)

		err = e.sleep(ctx, delay)
		if err != nil {
			return zero, e.fail(rc, e.classify(err, rc))
		}
	}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(attemptCtx)
}

// admit waits for the rate limiter, then counts the attempt against the quota.
func (e *Executor) admit(ctx context.Context) error {
	if e.limiter != nil {
		err := e.limiter.Wait(ctx)
		if err != nil {
			return err
		}
	}

	if e.quota != nil {
		return e.quota.Admit(ctx)
	}

	return nil
}

func (e *Executor) classify(err error, rc *RequestContext) *autotask.Error {
	return autotask.Classify(err, rc.Endpoint, rc.Method).WithRequest(rc.Endpoint, rc.Method, rc.RequestID)
}

func (e *Executor) fail(rc *RequestContext, classified *autotask.Error) error {
	rc.State = StateFailed
	e.logFailure(rc, classified)
	e.record(rc, false, classified.Kind)

	return classified
}

func (e *Executor) record(rc *RequestContext, success bool, kind autotask.ErrorKind) {
	if !e.cfg.RecordMetrics || e.recorder == nil {
		return
	}

	e.recorder.RecordRequest(autotask.Timing{
		Endpoint:  rc.Endpoint,
		Method:    rc.Method,
		Duration:  e.now().Sub(rc.StartTime),
		Success:   success,
		Kind:      kind,
		Attempts:  rc.Attempt,
		Timestamp: rc.StartTime,
	})
}

func (e *Executor) fields(rc *RequestContext) map[string]interface{} {
	return map[string]interface{}{
		"request_id": rc.RequestID,
		"endpoint":   rc.Endpoint,
		"method":     rc.Method,
		"attempt":    rc.Attempt,
		"state":      string(rc.State),
	}
}

func (e *Executor) logStart(rc *RequestContext) {
	if !e.cfg.LogRequests {
		return
	}

	e.logger.Debug("Autotask request started", e.fields(rc))
}

func (e *Executor) logSuccess(rc *RequestContext, attemptDuration time.Duration) {
	if !e.cfg.LogResponses {
		return
	}

	fields := e.fields(rc)
	fields["duration_ms"] = attemptDuration.Milliseconds()
	fields["total_ms"] = e.now().Sub(rc.StartTime).Milliseconds()
	e.logger.Debug("Autotask request completed", fields)
}

func (e *Executor) logRetry(rc *RequestContext, classified *autotask.Error, delay time.Duration) {
	if !e.cfg.LogResponses {
		return
	}

	fields := e.fields(rc)
	fields["kind"] = string(classified.Kind)
	fields["status"] = classified.StatusCode
	fields["delay"] = delay.String()
	fields["error"] = classified.Message
	e.logger.Warn("Autotask request failed, retrying", fields)
}

func (e *Executor) logFailure(rc *RequestContext, classified *autotask.Error) {
	if !e.cfg.LogResponses {
		return
	}

	fields := e.fields(rc)
	fields["kind"] = string(classified.Kind)
	fields["status"] = classified.StatusCode
	fields["error"] = classified.Message
	fields["total_ms"] = e.now().Sub(rc.StartTime).Milliseconds()

	if classified.Timeout {
		fields["timeout"] = true
	}

	e.logger.Error("Autotask request failed", fields)
}
