package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine and extraction Prometheus metrics.
var (
	RankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "designdex",
			Name:      "rank_requests_total",
			Help:      "Total number of ranking requests",
		},
		[]string{"status"},
	)

	RankDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "designdex",
			Name:      "rank_duration_seconds",
			Help:      "Ranking request duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	RankCandidatesScored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "designdex",
			Name:      "rank_candidates_scored_total",
			Help:      "Total candidate records scored",
		},
	)

	CorpusSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "designdex",
			Name:      "corpus_size",
			Help:      "Design records in the current corpus snapshot",
		},
	)

	ExtractionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "designdex",
			Name:      "extraction_requests_total",
			Help:      "Total number of parameter extraction requests",
		},
		[]string{"model", "status"},
	)

	ExtractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "designdex",
			Name:      "extraction_duration_seconds",
			Help:      "Parameter extraction duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RankRequestsTotal)
	prometheus.MustRegister(RankDuration)
	prometheus.MustRegister(RankCandidatesScored)
	prometheus.MustRegister(CorpusSize)
	prometheus.MustRegister(ExtractionRequestsTotal)
	prometheus.MustRegister(ExtractionDuration)
	engineMetricsRegistered = true
}
