// Package metrics defines Prometheus collectors for the search pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "searches_total",
			Help:      "Total number of searches executed, by source of the result set",
		},
		[]string{"source"}, // "stream" / "fallback" / "cache"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spyglass",
			Name:      "search_duration_seconds",
			Help:      "Search duration from request start to final batch",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	StreamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "stream_events_total",
			Help:      "Total SSE events received, by event type",
		},
		[]string{"type"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	FallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "fallbacks_total",
			Help:      "Total degradations from the streaming to the fallback endpoint",
		},
	)

	RetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "retries_total",
			Help:      "Total automatic retries after a failed search",
		},
	)

	DebouncedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "debounced_total",
			Help:      "Total keystrokes coalesced away by the debounce window",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(StreamEventsTotal)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(FallbacksTotal)
	prometheus.MustRegister(RetriesTotal)
	prometheus.MustRegister(DebouncedTotal)
	searchMetricsRegistered = true
}
