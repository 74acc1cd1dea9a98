package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

var _ autotask.QuotaStore = (*RedisStore)(nil)

const redisKeyPrefix = "autotask:quota:"

// incrementScript increments KEYS[1] and sets its expiry on first use.
//
// ARGV[1] = ttl in milliseconds
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisStore shares counters between every process using the same Redis.
type RedisStore struct {
	client    redis.UniversalClient
	ownClient bool
}

// NewRedisStore wraps an existing client. Close leaves the client open.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL connects using a redis:// URL. Close closes the connection.
func NewRedisStoreFromURL(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStore{client: client, ownClient: true}, nil
}

// Increment adds one to the counter for key.
func (r *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := incrementScript.Run(ctx, r.client, []string{redisKeyPrefix + key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("incrementing quota counter: %w", err)
	}

	return count, nil
}

// Get returns the counter for key.
func (r *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	count, err := r.client.Get(ctx, redisKeyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading quota counter: %w", err)
	}

	return count, nil
}

// Set overwrites the counter for key.
func (r *RedisStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	err := r.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("writing quota counter: %w", err)
	}

	return nil
}

// Close closes the client when the store created it.
func (r *RedisStore) Close() error {
	if !r.ownClient {
		return nil
	}

	return r.client.Close()
}
