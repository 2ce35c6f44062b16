package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss indicates no fresh entry exists for the requested key.
	ErrMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is the adapter to the external response cache. Implementations
// must be safe for concurrent use.
//
// Any error other than ErrMiss means the store is unavailable; callers
// are expected to fail open (treat a lookup failure as a miss, log a
// put/delete failure and continue).
type Store interface {
	// Lookup returns the entry stored under key, or ErrMiss when no
	// fresh entry exists.
	Lookup(ctx context.Context, key Key) (*Entry, error)

	// Put stores entry under key for the given lifetime.
	Put(ctx context.Context, key Key, entry *Entry, ttl time.Duration) error

	// Delete removes the entry stored under key and reports whether one
	// was present.
	Delete(ctx context.Context, key Key) (bool, error)
}
