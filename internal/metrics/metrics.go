// Package metrics implements the optional profiling sink as Prometheus
// collectors. The engine talks to the sink through the tasks.Profiler
// interface; wiring this package in changes observability only, never
// tracking behavior.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APICallsTotal counts physical catalog calls, including attempts
	// that are later retried.
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releaseradar_api_calls_total",
			Help: "Total number of catalog API calls attempted",
		},
		[]string{"operation"},
	)

	// RetriesTotal counts retry sleeps by failure classification.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releaseradar_retries_total",
			Help: "Total number of retried catalog calls",
		},
		[]string{"kind"},
	)

	// CacheHitsTotal counts release cache hits (short-circuited fetches).
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "releaseradar_cache_hits_total",
			Help: "Total number of release cache hits",
		},
	)

	// CacheMissesTotal counts release cache misses (stale or empty).
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "releaseradar_cache_misses_total",
			Help: "Total number of release cache misses",
		},
	)

	// CrossRefHitsTotal counts ISRC lookups answered from the permanent
	// cross-reference cache.
	CrossRefHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "releaseradar_crossref_hits_total",
			Help: "Total number of ISRC lookups served from cache",
		},
	)

	// CrossRefMissesTotal counts ISRC lookups requiring a catalog search.
	CrossRefMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "releaseradar_crossref_misses_total",
			Help: "Total number of ISRC lookups requiring a live search",
		},
	)

	// ReleasesFoundTotal counts releases surviving the pipeline.
	ReleasesFoundTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "releaseradar_releases_found_total",
			Help: "Total number of releases reported by tracking runs",
		},
	)
)

// Sink adapts the collectors above to the tasks.Profiler interface.
type Sink struct{}

// NewSink returns a Prometheus-backed profiling sink.
func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) APICall(operation string) {
	APICallsTotal.WithLabelValues(operation).Inc()
}

func (s *Sink) Retry(kind string) {
	RetriesTotal.WithLabelValues(kind).Inc()
}

func (s *Sink) CacheHit() {
	CacheHitsTotal.Inc()
}

func (s *Sink) CacheMiss() {
	CacheMissesTotal.Inc()
}

func (s *Sink) CrossRefHit() {
	CrossRefHitsTotal.Inc()
}

func (s *Sink) CrossRefMiss() {
	CrossRefMissesTotal.Inc()
}

func (s *Sink) ReleasesFound(count int) {
	ReleasesFoundTotal.Add(float64(count))
}
