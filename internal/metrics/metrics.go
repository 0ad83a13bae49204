// Package metrics provides Prometheus metrics for the document store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache label values.
const (
	CacheDocuments = "documents"
	CacheAddresses = "addresses"
)

// Metrics holds the counters shared by both caches and the parser.
type Metrics struct {
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheEvictions     *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec

	DocumentParses   prometheus.Counter
	SectionReads     prometheus.Counter
	SectionMutations prometheus.Counter
}

// New creates and registers all metrics against the given registerer. Tests
// pass a private prometheus.NewRegistry() so repeated construction never
// collides with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdstore_cache_hits_total",
			Help: "Total number of cache hits",
		}, []string{"cache"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdstore_cache_misses_total",
			Help: "Total number of cache misses",
		}, []string{"cache"}),
		CacheEvictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdstore_cache_evictions_total",
			Help: "Total number of LRU evictions",
		}, []string{"cache"}),
		CacheInvalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdstore_cache_invalidations_total",
			Help: "Total number of explicit cache invalidations",
		}, []string{"cache"}),
		DocumentParses: f.NewCounter(prometheus.CounterOpts{
			Name: "mdstore_document_parses_total",
			Help: "Total number of structural parses",
		}),
		SectionReads: f.NewCounter(prometheus.CounterOpts{
			Name: "mdstore_section_reads_total",
			Help: "Total number of section content reads",
		}),
		SectionMutations: f.NewCounter(prometheus.CounterOpts{
			Name: "mdstore_section_mutations_total",
			Help: "Total number of applied section mutations",
		}),
	}
}
