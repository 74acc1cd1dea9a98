package autotask_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

func liveEntry(data string) *autotask.CacheEntry {
	return &autotask.CacheEntry{Data: []byte(data), ExpiresAt: time.Now().Add(time.Hour)}
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("basic operations", func(t *testing.T) {
		t.Parallel()

		cache := autotask.NewMemoryCache(10)

		require.NoError(t, cache.Set(ctx, "zone:api@example.com", liveEntry("zone")))
		assert.True(t, cache.Has(ctx, "zone:api@example.com"))

		entry, err := cache.Get(ctx, "zone:api@example.com")
		require.NoError(t, err)
		assert.Equal(t, []byte("zone"), entry.Data)

		require.NoError(t, cache.Delete(ctx, "zone:api@example.com"))
		assert.False(t, cache.Has(ctx, "zone:api@example.com"))

		_, err = cache.Get(ctx, "zone:api@example.com")
		require.ErrorIs(t, err, autotask.ErrCacheKeyNotFound)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		cache := autotask.NewMemoryCache(2)

		require.NoError(t, cache.Set(ctx, "a", liveEntry("1")))
		require.NoError(t, cache.Set(ctx, "b", liveEntry("2")))

		_, err := cache.Get(ctx, "a")
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "c", liveEntry("3")))

		assert.True(t, cache.Has(ctx, "a"))
		assert.False(t, cache.Has(ctx, "b"))
		assert.True(t, cache.Has(ctx, "c"))
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("expired entries", func(t *testing.T) {
		t.Parallel()

		cache := autotask.NewMemoryCache(10)
		stale := &autotask.CacheEntry{Data: []byte("old"), ExpiresAt: time.Now().Add(-time.Minute)}

		require.NoError(t, cache.Set(ctx, "stale", stale))
		require.NoError(t, cache.Set(ctx, "other-stale", stale))
		require.NoError(t, cache.Set(ctx, "fresh", liveEntry("new")))

		_, err := cache.Get(ctx, "stale")
		require.ErrorIs(t, err, autotask.ErrCacheExpired)

		cache.Cleanup()
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("rejects oversized values", func(t *testing.T) {
		t.Parallel()

		cache := autotask.NewMemoryCache(10)

		err := cache.Set(ctx, "big", &autotask.CacheEntry{Data: []byte(strings.Repeat("x", 1024*1024+1))})
		require.ErrorIs(t, err, autotask.ErrCacheValueSize)
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		cache := autotask.NewMemoryCache(10)
		require.NoError(t, cache.Set(ctx, "a", liveEntry("1")))
		require.NoError(t, cache.Clear(ctx))
		assert.Equal(t, 0, cache.Len())
	})
}

func TestCacheManager(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := autotask.NewCacheManager(autotask.NewMemoryCache(10), nil)

	key := manager.GetCacheKey("fields", "Tickets", map[string]string{"zone": "5", "a": "b"})
	assert.Equal(t, "fields:Tickets:a=b&zone=5", key)
	assert.Equal(t, "zone:user", manager.GetCacheKey("zone", "user", nil))

	var missing autotask.ZoneInfo
	require.Error(t, manager.GetJSON(ctx, key, &missing))

	zone := autotask.ZoneInfo{ZoneName: "America East", URL: "https://webservices2.autotask.net/atservicesrest"}
	require.NoError(t, manager.SetJSON(ctx, key, zone, 0))

	var cached autotask.ZoneInfo
	require.NoError(t, manager.GetJSON(ctx, key, &cached))
	assert.Equal(t, zone, cached)

	stats := manager.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.InDelta(t, 0.5, stats.GetHitRate(), 0.001)

	require.NoError(t, manager.Delete(ctx, key))

	_, err := manager.Get(ctx, key)
	require.Error(t, err)
}

func TestCacheManager_ETags(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := autotask.NewMemoryCache(10)

	withETags := autotask.NewCacheManager(backend, autotask.DefaultCacheOptions())
	require.NoError(t, withETags.SetWithETag(ctx, "k1", []byte("v"), `"abc"`, time.Minute))

	entry, err := backend.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, entry.ETag)

	withoutETags := autotask.NewCacheManager(backend, &autotask.CacheOptions{TTL: time.Minute})
	require.NoError(t, withoutETags.SetWithETag(ctx, "k2", []byte("v"), `"abc"`, 0))

	entry, err = backend.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Empty(t, entry.ETag)
}

func TestCacheManager_NilCacheDisablesCaching(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := autotask.NewCacheManager(nil, nil)

	require.NoError(t, manager.Set(ctx, "k", []byte("v"), time.Minute))

	_, err := manager.Get(ctx, "k")
	require.ErrorIs(t, err, autotask.ErrCacheDisabled)
}
