package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "netmatch"

// Completion Prometheus metrics. Purpose is "extraction" or "explanation".
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "model", "purpose", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"provider", "model", "purpose"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	CompletionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_errors_total",
			Help:      "Total completion errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	CompletionBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "completion_budget_tokens_remaining",
			Help:      "Remaining completion token budget",
		},
		[]string{"provider", "period"},
	)
)

var completionMetricsRegistered bool

// RegisterCompletionMetrics registers completion metrics. Must be called once from main.
func RegisterCompletionMetrics() {
	if completionMetricsRegistered {
		return
	}
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(CompletionRequestDuration)
	prometheus.MustRegister(CompletionTokensTotal)
	prometheus.MustRegister(CompletionErrorsTotal)
	prometheus.MustRegister(CompletionBudgetTokensRemaining)
	completionMetricsRegistered = true
}
