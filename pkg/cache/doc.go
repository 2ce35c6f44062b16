// Package cache provides the edge response cache behind the proxy.
//
// The Store interface abstracts the external key-value cache with
// lookup/put/delete semantics keyed by request identity. Three providers
// implement it:
//
//   - RedisStore: production provider, JSON entries with native Redis TTLs
//   - MemoryStore: mutex-guarded map for development and unit tests
//   - SQLiteStore: file-backed provider for single-node deployments
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create store
//	store := cache.NewRedisStore(redisClient)
//
//	// Derive the key from the inbound request
//	key := cache.KeyFromRequest(r)
//
//	// Lookup
//	entry, err := store.Lookup(ctx, key)
//	if err == cache.ErrMiss {
//		// Miss - forward to the upstream
//	}
//
// # Storing Responses
//
//	// Convert an upstream response into an entry with a lifetime
//	entry, err := cache.EntryFromResponse(resp, time.Hour)
//	if err != nil {
//		return err
//	}
//
//	if err := store.Put(ctx, key, entry, time.Hour); err != nil {
//		// Non-fatal: the response is already on its way to the caller
//	}
//
// # Failure Semantics
//
// Any Store error other than ErrMiss means the provider is unavailable.
// Callers fail open: a lookup error counts as a miss, a put or delete
// error is logged and the request proceeds.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - edge_cache_hits_total{provider} - Cache hits
//   - edge_cache_misses_total - Cache misses
//   - edge_cache_stored_bytes_total{provider} - Bytes written
//   - edge_cache_errors_total{operation} - Operation errors
package cache
