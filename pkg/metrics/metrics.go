package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Application metrics. Register them onto the metrics server registry via
// Collectors().

var (
	// CompletionsTotal counts accepted completion events per category.
	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_completions_total",
			Help: "Total number of accepted completion events",
		},
		[]string{"category"},
	)

	// VersionConflictsTotal counts CAS conflicts seen by the aggregator.
	// A high rate means many overlapping writes for the same record.
	VersionConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_version_conflicts_total",
			Help: "Total number of compare-and-swap conflicts during aggregate updates",
		},
	)

	// ConflictExhaustedTotal counts completions rejected because the CAS
	// retry budget ran out.
	ConflictExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_conflict_exhausted_total",
			Help: "Total number of completions rejected after exhausting CAS retries",
		},
	)

	// CorruptRecordsTotal counts stored records that failed to deserialize
	// and were recovered by treating them as absent.
	CorruptRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_corrupt_records_total",
			Help: "Total number of corrupt records recovered as absent",
		},
	)

	// ResetsTotal counts administrative category resets.
	ResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_resets_total",
			Help: "Total number of administrative resets",
		},
	)

	// CompletionDuration observes end-to-end completion handling time.
	CompletionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_completion_duration_seconds",
			Help:    "End-to-end duration of recording a completion",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Collectors returns every application collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		CompletionsTotal,
		VersionConflictsTotal,
		ConflictExhaustedTotal,
		CorruptRecordsTotal,
		ResetsTotal,
		CompletionDuration,
	}
}
