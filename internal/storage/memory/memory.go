package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kurihiro0119/gitpeek/internal/storage"
)

type entry struct {
	value     []byte
	expiresAt int64 // unix millis, 0 means no expiry
}

// memoryStore implements the Store interface in process memory
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(opts ...storage.Option) storage.Store {
	o := storage.ApplyOptions(opts...)
	return &memoryStore{
		entries: make(map[string]entry),
		now:     o.Now,
	}
}

func (s *memoryStore) expired(e entry, now time.Time) bool {
	return e.expiresAt != 0 && now.UnixMilli() >= e.expiresAt
}

// Get returns the live value stored under key
func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.expired(e, s.now()) {
		return nil, false, nil
	}
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

// Set stores value under key
func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: stored, expiresAt: storage.ExpiresAt(s.now(), ttl)}
	return nil
}

// Delete removes key
func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// ClearExpired removes expired entries
func (s *memoryStore) ClearExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close releases nothing
func (s *memoryStore) Close() error {
	return nil
}
