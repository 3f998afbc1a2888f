package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	deadline time.Time
}

// MemoryStore is an in-process Store with per-key expiry checked lazily on
// read. It backs unit tests and single-node deployments without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// now is overridable so tests can advance time.
	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if !e.deadline.IsZero() && !s.now().Before(e.deadline) {
		delete(s.entries, key)
		return "", ErrKeyNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deadline time.Time
	if ttl > 0 {
		deadline = s.now().Add(ttl)
	}
	s.entries[key] = memoryEntry{value: value, deadline: deadline}
	return nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
