// Package rtstats exposes ambient prometheus metrics for the memoization
// graph. None of these gate correctness; they exist so an embedding process
// can scrape cache effectiveness the way aistore scrapes xaction stats.
package rtstats

import "github.com/prometheus/client_golang/prometheus"

var (
	RevisionCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "skiprt",
		Subsystem: "memo",
		Name:      "revision_count",
		Help:      "Number of live Revision objects across all invocations.",
	})
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skiprt",
		Subsystem: "memo",
		Name:      "cache_hits_total",
		Help:      "Evaluations satisfied by an existing concrete revision.",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skiprt",
		Subsystem: "memo",
		Name:      "cache_misses_total",
		Help:      "Evaluations that inserted a new placeholder and ran the thunk.",
	})
	RefreshSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skiprt",
		Subsystem: "memo",
		Name:      "refresh_success_total",
		Help:      "Refreshes that extended a head revision without rerunning the thunk.",
	})
	RefreshFallback = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skiprt",
		Subsystem: "memo",
		Name:      "refresh_fallback_total",
		Help:      "Refreshes that fell back to re-evaluation.",
	})
	GCCollections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skiprt",
		Subsystem: "obstack",
		Name:      "collections_total",
		Help:      "Obstack collect() invocations across all tasks.",
	})
	InternTableSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "skiprt",
		Subsystem: "intern",
		Name:      "table_size",
		Help:      "Number of live entries in the intern table.",
	})
	CleanupListDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "skiprt",
		Subsystem: "memo",
		Name:      "cleanup_list_depth",
		Help:      "Total invocations pending cleanup across all TxnId buckets.",
	})
)

func init() {
	prometheus.MustRegister(
		RevisionCount, CacheHits, CacheMisses, RefreshSuccess, RefreshFallback,
		GCCollections, InternTableSize, CleanupListDepth,
	)
}
