package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks the number of cache hits per entity kind.
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total number of catalog cache hits by kind",
	}, []string{"kind"})

	// cacheMisses tracks the number of cache misses per entity kind.
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total number of catalog cache misses by kind",
	}, []string{"kind"})

	cacheLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_cache_load_duration_seconds",
		Help:    "Time taken to load a catalog entry by kind",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"kind"})

	cacheLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_load_errors_total",
		Help: "Total number of catalog load errors by kind",
	}, []string{"kind"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_invalidations_total",
		Help: "Total number of catalog cache invalidations by scope",
	}, []string{"scope"})

	// cacheAge tracks the age of service snapshots.
	cacheAge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_cache_age_seconds",
		Help: "Age of the cached service snapshot in seconds",
	}, []string{"service"})

	circuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"name"})
)

// MetricsRecorder provides methods to record catalog metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCacheHit records a cache hit.
func (m *MetricsRecorder) RecordCacheHit(kind string) {
	cacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *MetricsRecorder) RecordCacheMiss(kind string) {
	cacheMisses.WithLabelValues(kind).Inc()
}

// RecordCacheLoad records a load from the backing store.
func (m *MetricsRecorder) RecordCacheLoad(kind string, durationSeconds float64, success bool) {
	cacheLoadDuration.WithLabelValues(kind).Observe(durationSeconds)
	if !success {
		cacheLoadErrors.WithLabelValues(kind).Inc()
	}
}

// RecordInvalidation records an invalidation of one service or of everything.
func (m *MetricsRecorder) RecordInvalidation(scope string) {
	cacheInvalidations.WithLabelValues(scope).Inc()
}

// RecordCacheAge records the age of a service snapshot.
func (m *MetricsRecorder) RecordCacheAge(serviceID string, ageSeconds float64) {
	cacheAge.WithLabelValues(serviceID).Set(ageSeconds)
}

// RecordCircuitState records a circuit breaker transition.
func (m *MetricsRecorder) RecordCircuitState(name string, state CircuitBreakerState) {
	circuitState.WithLabelValues(name).Set(float64(state))
}

// ClearServiceMetrics clears per-service gauges after invalidation.
func (m *MetricsRecorder) ClearServiceMetrics(serviceID string) {
	cacheAge.DeleteLabelValues(serviceID)
}
