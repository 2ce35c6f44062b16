// Package metrics provides the centralized Prometheus registry for the
// edge proxy. All metrics are defined in their respective packages
// (gateway, cache, client) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the proxy.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Gateway Metrics (pkg/gateway):
//   - edge_requests_total{route, status} (Counter): Total requests by route and HTTP status
//   - edge_request_duration_seconds{route} (Histogram): Request duration by route
//   - edge_proxy_cache_status_total{status} (Counter): Proxied GET responses by cache status (hit, miss)
//   - edge_origin_rejects_total (Counter): Requests rejected by the origin policy
//   - edge_purges_total{outcome} (Counter): Purge requests by outcome (purged, absent, unauthorized, not_allowed)
//   - edge_upstream_failures_total (Counter): Failed upstream round trips
//   - edge_store_failures_total{operation} (Counter): Cache store failures seen by the gateway (lookup, put, delete)
//
// Cache Metrics (pkg/cache):
//   - edge_cache_hits_total{provider} (Counter): Cache hits by store provider (redis, memory, sqlite)
//   - edge_cache_misses_total (Counter): Cache misses across all store providers
//   - edge_cache_stored_bytes_total{provider} (Counter): Bytes written to the cache by store provider
//   - edge_cache_errors_total{operation} (Counter): Cache operation errors (lookup, put, delete)
//
// Client Metrics (pkg/client):
//   - edge_client_requests_total{operation, status} (Counter): Requests issued by the Go client
//   - edge_client_request_duration_seconds{operation} (Histogram): Client-observed request duration
//   - edge_client_cache_status_total{status} (Counter): Cache statuses reported to the client (hit, miss, none)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(edge_proxy_cache_status_total{status="hit"}[5m])) /
//   sum(rate(edge_proxy_cache_status_total[5m]))
//
//   # Origin Reject Rate
//   rate(edge_origin_rejects_total[5m])
//
//   # Upstream Failure Rate
//   rate(edge_upstream_failures_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(edge_request_duration_seconds_bucket[5m]))
//
//   # Purge Outcomes
//   sum by (outcome) (rate(edge_purges_total[5m]))
