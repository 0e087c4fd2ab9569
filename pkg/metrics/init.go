package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "auri_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auri_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "auri_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
}

func (r *Registry) initPipelineMetrics() {
	r.AggregateDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auri_aggregate_duration_seconds",
			Help:    "Time spent counting emotions across entries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	r.LayoutsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "auri_layouts_total",
			Help: "Total number of bubble layouts computed",
		},
		[]string{"status"}, // ok, overflow, error
	)

	r.LayoutDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auri_layout_duration_seconds",
			Help:    "Bubble layout latency in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)

	r.LayoutBubbles = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auri_layout_bubbles",
			Help:    "Number of bubbles per layout",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 500},
		},
	)

	r.LayoutOverflowsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "auri_layout_overflow_bubbles_total",
			Help: "Bubbles that exhausted their search budget",
		},
	)

	r.RendersTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "auri_renders_total",
			Help: "Total number of render passes by format",
		},
		[]string{"format", "status"},
	)

	r.RenderDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auri_render_duration_seconds",
			Help:    "Render latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
}

func (r *Registry) initCacheMetrics() {
	r.CacheHitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "auri_cache_hits_total",
			Help: "Cache hits by key type",
		},
		[]string{"type"},
	)

	r.CacheMissesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "auri_cache_misses_total",
			Help: "Cache misses by key type",
		},
		[]string{"type"},
	)

	r.CacheSetBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auri_cache_set_bytes",
			Help:    "Size of values written to the cache",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"type"},
	)
}

func (r *Registry) initUpstreamMetrics() {
	r.UpstreamRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "auri_upstream_requests_total",
			Help: "Outgoing requests by host and status",
		},
		[]string{"host", "status"},
	)

	r.UpstreamRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auri_upstream_request_duration_seconds",
			Help:    "Outgoing request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	r.UpstreamErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "auri_upstream_errors_total",
			Help: "Outgoing requests that failed before a response",
		},
		[]string{"host"},
	)
}
