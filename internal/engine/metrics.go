package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// decisionsExtracted counts extracted candidates.
	// Labels: pattern_type (explicit, implicit, comparison, technical)
	decisionsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdict",
			Subsystem: "engine",
			Name:      "decisions_extracted_total",
			Help:      "Total number of candidate decisions extracted from text",
		},
		[]string{"pattern_type"},
	)

	conflictsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "verdict",
			Subsystem: "engine",
			Name:      "conflicts_detected_total",
			Help:      "Total number of confirmed conflicts between decisions",
		},
	)

	supersedences = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "verdict",
			Subsystem: "engine",
			Name:      "supersedences_total",
			Help:      "Total number of decisions marked superseded",
		},
	)

	// conflictQueryFailures counts candidate sub-queries that failed and were skipped.
	conflictQueryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "verdict",
			Subsystem: "engine",
			Name:      "conflict_query_failures_total",
			Help:      "Total number of conflict candidate sub-queries that failed",
		},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "verdict",
			Subsystem: "engine",
			Name:      "search_duration_seconds",
			Help:      "Duration of decision searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// searchCacheLookups counts cache lookups.
	// Labels: result (hit, miss)
	searchCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdict",
			Subsystem: "engine",
			Name:      "search_cache_lookups_total",
			Help:      "Total number of search cache lookups by result",
		},
		[]string{"result"},
	)
)
