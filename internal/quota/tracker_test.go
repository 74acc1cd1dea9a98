package quota_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/internal/quota"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

type recordingLogger struct {
	autotask.NoopLogger

	mu    sync.Mutex
	warns []map[string]interface{}
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.warns = append(l.warns, fields)
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.warns)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestTracker_AdmitUpToThreshold(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 14, 45, 0, 0, time.UTC)}
	tracker := quota.New(quota.NewMemoryStore(), 3, quota.WithClock(clock.Now))
	ctx := context.Background()

	for range 3 {
		require.NoError(t, tracker.Admit(ctx))
	}

	err := tracker.Admit(ctx)
	require.Error(t, err)

	var atErr *autotask.Error
	require.ErrorAs(t, err, &atErr)
	assert.Equal(t, autotask.KindRateLimit, atErr.Kind)
	assert.Equal(t, 15*time.Minute, atErr.RetryAfter)
	assert.Contains(t, atErr.Message, "threshold of 3")
}

func TestTracker_BucketRollover(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 14, 59, 0, 0, time.UTC)}
	tracker := quota.New(quota.NewMemoryStore(), 1, quota.WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, tracker.Admit(ctx))
	require.Error(t, tracker.Admit(ctx))

	clock.Advance(2 * time.Minute)
	require.NoError(t, tracker.Admit(ctx))
}

func TestTracker_Usage(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)}
	tracker := quota.New(quota.NewMemoryStore(), 10, quota.WithClock(clock.Now))
	ctx := context.Background()

	for range 4 {
		require.NoError(t, tracker.Admit(ctx))
	}

	usage, err := tracker.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), usage.Used)
	assert.Equal(t, int64(10), usage.Threshold)
	assert.Equal(t, int64(6), usage.Remaining)
	assert.InDelta(t, 40.0, usage.Percent, 0.001)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), usage.ResetsAt)
}

func TestTracker_WarnsOncePerLevel(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	logger := &recordingLogger{}
	tracker := quota.New(quota.NewMemoryStore(), 20, quota.WithClock(clock.Now), quota.WithLogger(logger))
	ctx := context.Background()

	for range 9 {
		require.NoError(t, tracker.Admit(ctx))
	}

	assert.Equal(t, 0, logger.count())

	require.NoError(t, tracker.Admit(ctx)) // 50%
	require.NoError(t, tracker.Admit(ctx))
	assert.Equal(t, 1, logger.count())

	for range 4 {
		require.NoError(t, tracker.Admit(ctx))
	}

	assert.Equal(t, 2, logger.count()) // 75%

	for range 3 {
		require.NoError(t, tracker.Admit(ctx))
	}

	assert.Equal(t, 3, logger.count()) // 90%

	clock.Advance(time.Hour)

	for range 10 {
		require.NoError(t, tracker.Admit(ctx))
	}

	assert.Equal(t, 4, logger.count())
}

func TestTracker_SyncFromServer(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tracker := quota.New(quota.NewMemoryStore(), 0, quota.WithClock(clock.Now))
	ctx := context.Background()

	assert.Equal(t, int64(10000), tracker.Threshold())

	err := tracker.SyncFromServer(ctx, autotask.ThresholdInfo{
		ExternalRequestThreshold:     100,
		RequestThresholdTimeframe:    60,
		CurrentTimeframeRequestCount: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), tracker.Threshold())

	require.NoError(t, tracker.Admit(ctx))
	require.Error(t, tracker.Admit(ctx))
}

func TestTracker_SharedStoreWithPrefixes(t *testing.T) {
	t.Parallel()

	store := quota.NewMemoryStore()
	first := quota.New(store, 1, quota.WithKeyPrefix("alice"))
	second := quota.New(store, 1, quota.WithKeyPrefix("bob"))
	ctx := context.Background()

	require.NoError(t, first.Admit(ctx))
	require.NoError(t, second.Admit(ctx))
	require.Error(t, first.Admit(ctx))
}

func TestTracker_ConcurrentAdmit(t *testing.T) {
	t.Parallel()

	tracker := quota.New(quota.NewMemoryStore(), 50)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)

	for range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if tracker.Admit(ctx) == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 50, admitted)
}
