package autotask

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrNATSBucketRequired is returned when a NATS KV cache has no bucket name.
var ErrNATSBucketRequired = errors.New("NATS KV bucket name is required")

// NATSKVConfig configures the NATS JetStream key/value cache.
type NATSKVConfig struct {
	// URL of the NATS server, ignored when Conn is set.
	URL string
	// Conn reuses an existing connection; the cache does not close it.
	Conn *nats.Conn
	// Bucket is created when missing.
	Bucket string
	// TTL bounds the lifetime of every key in the bucket.
	TTL time.Duration
	// Replicas for the bucket stream, 1 when zero.
	Replicas int
}

// NATSKVCache shares cached metadata between processes through a JetStream
// key/value bucket. Keys are base64url encoded since the bucket only accepts
// a restricted alphabet.
type NATSKVCache struct {
	conn      *nats.Conn
	ownsConn  bool
	kv        jetstream.KeyValue
	bucket    string
	now       func() time.Time
	opTimeout time.Duration
}

// NewNATSKVCache connects to NATS and opens (or creates) the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	if config.Bucket == "" {
		return nil, ErrNATSBucketRequired
	}

	conn := config.Conn
	ownsConn := false

	if conn == nil {
		var err error

		conn, err = nats.Connect(config.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", config.URL, err)
		}

		ownsConn = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		if ownsConn {
			conn.Close()
		}

		return nil, fmt.Errorf("initializing JetStream: %w", err)
	}

	replicas := config.Replicas
	if replicas <= 0 {
		replicas = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), nats.DefaultTimeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      config.Bucket,
		Description: "autotask client metadata cache",
		TTL:         config.TTL,
		Replicas:    replicas,
	})
	if err != nil {
		if ownsConn {
			conn.Close()
		}

		return nil, fmt.Errorf("opening KV bucket %s: %w", config.Bucket, err)
	}

	return &NATSKVCache{
		conn:      conn,
		ownsConn:  ownsConn,
		kv:        kv,
		bucket:    config.Bucket,
		now:       time.Now,
		opTimeout: nats.DefaultTimeout,
	}, nil
}

func encodeNATSKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// Get retrieves an entry.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	kvEntry, err := c.kv.Get(ctx, encodeNATSKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
		}

		return nil, fmt.Errorf("reading %s from bucket %s: %w", key, c.bucket, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}

	if entry.Expired(c.now()) {
		_ = c.kv.Delete(ctx, encodeNATSKey(key))

		return nil, fmt.Errorf("%w: %s", ErrCacheExpired, key)
	}

	return &entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	_, err = c.kv.Put(ctx, encodeNATSKey(key), data)
	if err != nil {
		return fmt.Errorf("writing %s to bucket %s: %w", key, c.bucket, err)
	}

	return nil
}

// Delete removes an entry. Missing keys are not an error.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	err := c.kv.Delete(ctx, encodeNATSKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from bucket %s: %w", key, c.bucket, err)
	}

	return nil
}

// Clear purges every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing bucket %s: %w", c.bucket, err)
	}
	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		err = c.kv.Purge(ctx, key)
		if err != nil {
			return fmt.Errorf("purging bucket %s: %w", c.bucket, err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close drains the connection when the cache opened it.
func (c *NATSKVCache) Close() error {
	if !c.ownsConn {
		return nil
	}

	err := c.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
