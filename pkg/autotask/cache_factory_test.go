package autotask_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

func TestParseCacheType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    autotask.CacheType
		wantErr bool
	}{
		{"", autotask.CacheTypeMemory, false},
		{"Memory", autotask.CacheTypeMemory, false},
		{" nats ", autotask.CacheTypeNATS, false},
		{"none", autotask.CacheTypeNone, false},
		{"off", autotask.CacheTypeNone, false},
		{"disabled", autotask.CacheTypeNone, false},
		{"redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := autotask.ParseCacheType(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, autotask.ErrUnsupportedCacheType)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewCacheFromConfig(t *testing.T) {
	t.Parallel()

	cache, err := autotask.NewCacheFromConfig(nil)
	require.NoError(t, err)
	assert.IsType(t, &autotask.MemoryCache{}, cache)

	cache, err = autotask.NewCacheFromConfig(&autotask.CacheConfig{Type: autotask.CacheTypeNone})
	require.NoError(t, err)
	assert.IsType(t, &autotask.NoOpCache{}, cache)

	_, err = autotask.NewCacheFromConfig(&autotask.CacheConfig{Type: autotask.CacheTypeNATS})
	require.ErrorIs(t, err, autotask.ErrNATSConfigRequired)

	_, err = autotask.NewCacheFromConfig(&autotask.CacheConfig{
		Type: autotask.CacheTypeNATS,
		NATS: &autotask.NATSKVConfig{URL: "nats://127.0.0.1:4222"},
	})
	require.ErrorIs(t, err, autotask.ErrNATSBucketRequired)

	_, err = autotask.NewCacheFromConfig(&autotask.CacheConfig{Type: "memcached"})
	require.ErrorIs(t, err, autotask.ErrUnsupportedCacheType)
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := autotask.NewNoOpCache()

	require.NoError(t, cache.Set(ctx, "k", liveEntry("v")))
	assert.False(t, cache.Has(ctx, "k"))

	_, err := cache.Get(ctx, "k")
	require.ErrorIs(t, err, autotask.ErrCacheDisabled)
	require.NoError(t, cache.Delete(ctx, "k"))
	require.NoError(t, cache.Clear(ctx))
}

func TestCacheBuilder(t *testing.T) {
	t.Parallel()

	cache, err := autotask.NewCacheBuilder().WithMemoryConfig(5).Build()
	require.NoError(t, err)
	assert.IsType(t, &autotask.MemoryCache{}, cache)

	cache, err = autotask.NewCacheBuilder().
		WithType(autotask.CacheTypeMemory).
		WithSharedLayer(&autotask.CacheConfig{Type: autotask.CacheTypeNone}).
		Build()
	require.NoError(t, err)
	assert.IsType(t, &autotask.CacheChain{}, cache)

	_, err = autotask.NewCacheBuilder().WithType(autotask.CacheTypeNATS).Build()
	require.ErrorIs(t, err, autotask.ErrNATSConfigRequired)
}

func TestCacheChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l1 := autotask.NewMemoryCache(10)
	l2 := autotask.NewMemoryCache(10)
	chain := autotask.NewCacheChain(l1, l2)

	require.NoError(t, l2.Set(ctx, "fields:Tickets", liveEntry("fields")))
	assert.False(t, l1.Has(ctx, "fields:Tickets"))

	entry, err := chain.Get(ctx, "fields:Tickets")
	require.NoError(t, err)
	assert.Equal(t, []byte("fields"), entry.Data)
	assert.True(t, l1.Has(ctx, "fields:Tickets"), "hit in L2 populates L1")

	require.NoError(t, chain.Set(ctx, "zone:u", liveEntry("zone")))
	assert.True(t, l1.Has(ctx, "zone:u"))
	assert.True(t, l2.Has(ctx, "zone:u"))
	assert.True(t, chain.Has(ctx, "zone:u"))

	require.NoError(t, chain.Delete(ctx, "zone:u"))
	assert.False(t, chain.Has(ctx, "zone:u"))

	require.NoError(t, chain.Clear(ctx))

	_, err = chain.Get(ctx, "fields:Tickets")
	require.ErrorIs(t, err, autotask.ErrKeyNotFoundInAnyCache)
}
