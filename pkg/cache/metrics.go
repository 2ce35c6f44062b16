package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits tracks cache hits by store provider.
	Hits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"provider"}, // "redis", "memory", "sqlite"
	)

	// Misses tracks cache misses.
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edge_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// StoredBytes tracks bytes written to the cache by store provider.
	StoredBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_cache_stored_bytes_total",
			Help: "Total bytes written to the cache",
		},
		[]string{"provider"},
	)

	// Errors tracks cache operation errors.
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "lookup", "put", "delete"
	)
)
