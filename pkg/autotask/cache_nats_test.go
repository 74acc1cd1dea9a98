package autotask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeNATSKey(t *testing.T) {
	t.Parallel()

	key := encodeNATSKey("zone:api@example.com")

	assert.Equal(t, "em9uZTphcGlAZXhhbXBsZS5jb20", key)
	assert.NotContains(t, key, "=")
	assert.NotContains(t, key, ":")
}

func TestNewNATSKVCache_RequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := NewNATSKVCache(nil)
	assert.ErrorIs(t, err, ErrNATSConfigRequired)

	_, err = NewNATSKVCache(&NATSKVConfig{URL: "nats://127.0.0.1:4222"})
	assert.ErrorIs(t, err, ErrNATSBucketRequired)
}
