package quota

import (
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

var _ autotask.QuotaStore = (*MemoryStore)(nil)

type counter struct {
	value     int64
	expiresAt time.Time
}

// MemoryStore keeps counters in process memory. Counters are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Increment adds one to the counter for key.
func (m *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evictLocked(now)

	entry, ok := m.counters[key]
	if !ok {
		entry = &counter{expiresAt: now.Add(ttl)}
		m.counters[key] = entry
	}

	entry.value++

	return entry.value, nil
}

// Get returns the counter for key.
func (m *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.counters[key]
	if !ok || !m.now().Before(entry.expiresAt) {
		return 0, nil
	}

	return entry.value, nil
}

// Set overwrites the counter for key.
func (m *MemoryStore) Set(_ context.Context, key string, value int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[key] = &counter{value: value, expiresAt: m.now().Add(ttl)}

	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) evictLocked(now time.Time) {
	for key, entry := range m.counters {
		if !now.Before(entry.expiresAt) {
			delete(m.counters, key)
		}
	}
}
