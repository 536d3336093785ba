package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Candidate retrieval latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	RetrievalAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_attempts",
			Help:      "Vector index queries issued per retrieval",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"kind"},
	)

	RetrievalOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_outcomes_total",
			Help:      "Retrieval calls by outcome status",
		},
		[]string{"kind", "status"}, // complete / exhausted / partial / error
	)

	RetrievalFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_fallback_total",
			Help:      "Fallback sampler invocations",
		},
		[]string{"kind", "result"}, // "ok" / "error"
	)

	RetrievalStageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_stage_errors_total",
			Help:      "Upstream failures during retrieval by stage",
		},
		[]string{"kind", "stage"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalAttempts)
	prometheus.MustRegister(RetrievalOutcomesTotal)
	prometheus.MustRegister(RetrievalFallbackTotal)
	prometheus.MustRegister(RetrievalStageErrorsTotal)
	retrievalMetricsRegistered = true
}
