package metrics

import "github.com/prometheus/client_golang/prometheus"

// RAG pipeline Prometheus metrics.
var (
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nyaya",
			Name:      "rag_plans_total",
			Help:      "Total number of planning attempts",
		},
		[]string{"status"}, // "success" / "retry" / "error"
	)

	SubQuestionsPerPlan = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nyaya",
			Name:      "rag_subquestions_per_plan",
			Help:      "Number of sub-questions emitted per plan",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	RetrievedChunks = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nyaya",
			Name:      "rag_retrieved_chunks",
			Help:      "Chunks retrieved per sub-question",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"act"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nyaya",
			Name:      "generation_requests_total",
			Help:      "Total number of generation requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nyaya",
			Name:      "generation_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nyaya",
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"model", "type"}, // "prompt" / "total"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nyaya",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nyaya",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	GapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nyaya",
			Name:      "rag_gaps_total",
			Help:      "Sub-questions that produced no grounded partial answer",
		},
		[]string{"reason"},
	)
)

var ragMetricsRegistered bool

// RegisterRAGMetrics registers Prometheus RAG metrics. Must be called once from main.
func RegisterRAGMetrics() {
	if ragMetricsRegistered {
		return
	}
	prometheus.MustRegister(PlansTotal)
	prometheus.MustRegister(SubQuestionsPerPlan)
	prometheus.MustRegister(RetrievedChunks)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(GenerationTokensTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(GapsTotal)
	ragMetricsRegistered = true
}
