package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and enhancement metrics.
var (
	searchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Searches by retrieval path and outcome",
		},
		[]string{"path", "outcome"},
	)

	searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency by retrieval path",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"path"},
	)

	searchConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_vector_confidence",
			Help:      "Vector confidence observed per search",
			Buckets:   prometheus.LinearBuckets(0.05, 0.05, 19),
		},
	)

	searchDegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_degradations_total",
			Help:      "Searches served with a degraded source",
		},
		[]string{"reason"},
	)

	enhancementCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhancement_cache_total",
			Help:      "Enhancement cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	enhancementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhancements_generated_total",
			Help:      "Generated enhancements by summary source",
		},
		[]string{"source"}, // "ai" / "excerpt"
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers search and enhancement collectors.
// Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			searchRequestsTotal,
			searchDuration,
			searchConfidence,
			searchDegradationsTotal,
			enhancementCacheTotal,
			enhancementsTotal,
		)
	})
}

// SearchRecorder reports orchestrator telemetry to Prometheus.
type SearchRecorder struct{}

// ObserveSearch records one finished search.
func (SearchRecorder) ObserveSearch(path, outcome string, d time.Duration) {
	searchRequestsTotal.WithLabelValues(path, outcome).Inc()
	searchDuration.WithLabelValues(path).Observe(d.Seconds())
}

// ObserveConfidence records the vector confidence of one search.
func (SearchRecorder) ObserveConfidence(v float64) {
	searchConfidence.Observe(v)
}

// IncDegradation counts a degraded source.
func (SearchRecorder) IncDegradation(reason string) {
	searchDegradationsTotal.WithLabelValues(reason).Inc()
}

// EnhancementRecorder reports enhancement cache and generation telemetry.
type EnhancementRecorder struct{}

// CacheLookup counts one cache read.
func (EnhancementRecorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	enhancementCacheTotal.WithLabelValues(result).Inc()
}

// Generated counts one generated enhancement by summary source.
func (EnhancementRecorder) Generated(source string) {
	enhancementsTotal.WithLabelValues(source).Inc()
}
