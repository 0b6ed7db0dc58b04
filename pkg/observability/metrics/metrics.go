package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionRequests counts detection requests by final decision.
	DetectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonyguard_detection_requests_total",
			Help: "Total number of detection requests by decision",
		},
		[]string{"decision"},
	)

	// DetectionDuration tracks end-to-end pipeline latency in seconds.
	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harmonyguard_detection_duration_seconds",
			Help:    "End-to-end detection pipeline latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// ClassifierDuration tracks external classifier call latency in seconds.
	ClassifierDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harmonyguard_classifier_duration_seconds",
			Help:    "External ML classifier call latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// ClassifierErrors counts external classifier failures by kind.
	ClassifierErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonyguard_classifier_errors_total",
			Help: "External ML classifier failures by kind (timeout, fatal)",
		},
		[]string{"kind"},
	)

	// LexiconMatches counts lexicon detections by language and category.
	LexiconMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonyguard_lexicon_matches_total",
			Help: "Lexicon detections by language and category",
		},
		[]string{"language", "category"},
	)

	// LexiconEntries reports loaded lexicon entries per language.
	LexiconEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "harmonyguard_lexicon_entries",
			Help: "Number of loaded lexicon entries per language",
		},
		[]string{"language"},
	)

	// ContextRuleFired counts context rules that adjusted a detection.
	ContextRuleFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonyguard_context_rule_fired_total",
			Help: "Context analyzer rule applications by rule name",
		},
		[]string{"rule"},
	)

	// CacheOperations counts result-cache hits and misses by backend.
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonyguard_cache_operations_total",
			Help: "Result cache operations by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	// BatchSize tracks the number of items per batch request.
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harmonyguard_batch_size",
			Help:    "Number of texts per batch detection request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// RecordDecision records a completed detection with its decision and latency.
func RecordDecision(decision string, seconds float64) {
	DetectionRequests.WithLabelValues(decision).Inc()
	DetectionDuration.Observe(seconds)
}

// RecordClassifierError records a classifier failure of the given kind.
func RecordClassifierError(kind string) {
	ClassifierErrors.WithLabelValues(kind).Inc()
}

// RecordCacheOperation records a cache hit or miss for a backend.
func RecordCacheOperation(backend, outcome string) {
	CacheOperations.WithLabelValues(backend, outcome).Inc()
}
