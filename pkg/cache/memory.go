package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

// MemoryStore is a mutex-guarded in-process Store for development and
// tests. Entries expire lazily on lookup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Lookup returns the entry stored under key, or ErrMiss when absent or
// expired. Expired entries are removed on the way.
func (s *MemoryStore) Lookup(_ context.Context, key Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	stored, ok := s.entries[k]
	if !ok {
		Misses.Inc()
		return nil, ErrMiss
	}
	if time.Now().After(stored.expires) || stored.entry.IsExpired() {
		delete(s.entries, k)
		Misses.Inc()
		return nil, ErrMiss
	}

	Hits.WithLabelValues("memory").Inc()
	entry := stored.entry
	return &entry, nil
}

// Put stores a snapshot of the entry for the given lifetime.
func (s *MemoryStore) Put(_ context.Context, key Key, entry *Entry, ttl time.Duration) error {
	if entry == nil || ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key.String()] = memoryEntry{
		entry:   *entry,
		expires: time.Now().Add(ttl),
	}
	StoredBytes.WithLabelValues("memory").Add(float64(len(entry.Body)))
	return nil
}

// Delete removes an entry and reports whether one was present.
func (s *MemoryStore) Delete(_ context.Context, key Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	_, ok := s.entries[k]
	delete(s.entries, k)
	return ok, nil
}

// Len returns the number of entries currently stored, counting expired
// entries not yet collected.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
