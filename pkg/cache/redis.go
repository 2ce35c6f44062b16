package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store backed by Redis. Entries are
// JSON-encoded and expire through native Redis TTLs.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Lookup retrieves an entry by key. Returns ErrMiss if the key does not
// exist; an entry found expired is deleted and reported as a miss.
func (s *RedisStore) Lookup(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			Misses.Inc()
			return nil, ErrMiss
		}
		Errors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		Errors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis TTL and the entry's own expiry can drift; trust the entry.
	if entry.IsExpired() {
		_, _ = s.Delete(ctx, key)
		Misses.Inc()
		return nil, ErrMiss
	}

	Hits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Put stores an entry with the given lifetime.
func (s *RedisStore) Put(ctx context.Context, key Key, entry *Entry, ttl time.Duration) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	StoredBytes.WithLabelValues("redis").Add(float64(len(data)))
	return nil
}

// Delete removes an entry and reports whether one was present.
func (s *RedisStore) Delete(ctx context.Context, key Key) (bool, error) {
	removed, err := s.redis.Del(ctx, key.String()).Result()
	if err != nil {
		Errors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("redis del: %w", err)
	}
	return removed > 0, nil
}
