package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and match metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Search requests by the path that produced the results",
		},
		[]string{"mode"}, // "structured" / "fallback"
	)

	ExplanationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanation_cache_total",
			Help:      "Match explanation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ExplanationUnavailableTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanation_unavailable_total",
			Help:      "Match explanations that could not be produced",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and match metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(ExplanationCacheTotal)
	prometheus.MustRegister(ExplanationUnavailableTotal)
	searchMetricsRegistered = true
}
