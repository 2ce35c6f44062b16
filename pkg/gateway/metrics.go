package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_requests_total",
		Help: "Total requests by route and status",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edge_request_duration_seconds",
		Help:    "Request duration in seconds by route",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"route"})

	cacheStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_proxy_cache_status_total",
		Help: "Proxied GET responses by cache status",
	}, []string{"status"}) // "hit", "miss"

	originRejectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edge_origin_rejects_total",
		Help: "Total requests rejected by the origin policy",
	})

	purgesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_purges_total",
		Help: "Total purge requests by outcome",
	}, []string{"outcome"}) // "purged", "absent", "unauthorized", "not_allowed"

	upstreamFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edge_upstream_failures_total",
		Help: "Total failed upstream round trips",
	})

	storeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_store_failures_total",
		Help: "Total cache store failures observed by the gateway",
	}, []string{"operation"}) // "lookup", "put", "delete"
)
