package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidePollsTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "ride_polls_total", Help: "Total ride poll fetches issued"})
	RidePollErrors   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "ride_poll_errors_total", Help: "Ride polls that failed"})
	StatusChanges    = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "ride_status_changes_total", Help: "Observed ride status transitions"}, []string{"to"})
	NoDriverExpiries = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "no_driver_expiries_total", Help: "No-driver windows that expired"})
	RebooksTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "rebooks_total", Help: "Ride recreations submitted"})

	RouteCacheHits   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "route_cache_hits_total", Help: "Route lookups served from cache"})
	RouteCacheMisses = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "route_cache_misses_total", Help: "Route lookups that missed the cache"})
	RouteFallbacks   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_tracker", Name: "route_fallbacks_total", Help: "Routes served by the straight-line fallback"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_tracker", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_tracker",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
