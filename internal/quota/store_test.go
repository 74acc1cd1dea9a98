package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), server
}

func TestStores_IncrementGetSet(t *testing.T) {
	t.Parallel()

	redisStore, _ := newTestRedisStore(t)

	stores := map[string]autotask.QuotaStore{
		"memory": NewMemoryStore(),
		"sqlite": newTestSQLiteStore(t),
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Equal(t, int64(0), got)

			for i := int64(1); i <= 5; i++ {
				got, err = store.Increment(ctx, "user:2026030114", time.Hour)
				require.NoError(t, err)
				assert.Equal(t, i, got)
			}

			got, err = store.Get(ctx, "user:2026030114")
			require.NoError(t, err)
			assert.Equal(t, int64(5), got)

			require.NoError(t, store.Set(ctx, "user:2026030114", 42, time.Hour))

			got, err = store.Increment(ctx, "user:2026030114", time.Hour)
			require.NoError(t, err)
			assert.Equal(t, int64(43), got)

			got, err = store.Get(ctx, "other")
			require.NoError(t, err)
			assert.Equal(t, int64(0), got)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Increment(ctx, "key", time.Minute)
	require.NoError(t, err)

	now = now.Add(time.Minute)

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	got, err = store.Increment(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestSQLiteStore_ExpiryAndPurge(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newTestSQLiteStore(t)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Increment(ctx, "a", time.Minute)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "b", time.Hour)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	purged, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	got, err = store.Increment(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestRedisStore_Expiry(t *testing.T) {
	t.Parallel()

	store, server := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.Increment(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, server.TTL(redisKeyPrefix+"key"))

	server.FastForward(time.Minute)

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestRedisStore_FromURL(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)

	store, err := NewRedisStoreFromURL(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)

	_, err = store.Increment(context.Background(), "key", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewRedisStoreFromURL(context.Background(), "not a url")
	require.Error(t, err)
}
