// Package metrics provides Prometheus metrics for the measureboard client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus metrics for the dashboard engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Fetch pipeline
	fetchBatches  prometheus.Counter
	fetchErrors   prometheus.Counter
	staleDiscards prometheus.Counter
	mergeDuration prometheus.Histogram

	// Mutations
	mutations        *prometheus.CounterVec
	mutationErrors   *prometheus.CounterVec
	validationErrors prometheus.Counter

	// Engine state
	cacheSize     prometheus.Gauge
	activeSeries  prometheus.Gauge
	seriesCount   prometheus.Gauge
	selectionSize prometheus.Gauge

	// API transport
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiCallErrors *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "measureboard",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.fetchBatches = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_batches_total",
		Help:      "Measurement fetch batches issued.",
	})
	m.fetchErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_errors_total",
		Help:      "Fetch batches that failed.",
	})
	m.staleDiscards = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_discards_total",
		Help:      "Fetch results discarded because a newer batch superseded them.",
	})
	m.mergeDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "merge_duration_seconds",
		Help:      "Time spent merging per-series lists into timeline rows.",
		Buckets:   m.histogramBuckets,
	})

	m.mutations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutations_total",
		Help:      "Successful mutations by kind.",
	}, []string{"kind"})
	m.mutationErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutation_errors_total",
		Help:      "Mutations rejected by the server, by kind.",
	}, []string{"kind"})
	m.validationErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_errors_total",
		Help:      "Local validation failures that never reached the network.",
	})

	m.cacheSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_measurements",
		Help:      "Measurements currently held in the per-series cache.",
	})
	m.activeSeries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_series",
		Help:      "Series currently chosen for display.",
	})
	m.seriesCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "series_total",
		Help:      "Series definitions known to the client.",
	})
	m.selectionSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_size",
		Help:      "Measurements currently selected.",
	})

	m.apiRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "API calls by endpoint and status code.",
	}, []string{"endpoint", "status"})
	m.apiLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "API call latency by endpoint.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})
	m.apiCallErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "api",
		Name:      "call_errors_total",
		Help:      "API calls that failed at transport level, by endpoint.",
	}, []string{"endpoint"})
}

// Handler returns an HTTP handler serving the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Handler returns the global metrics handler.
func Handler() http.Handler {
	return globalManager.Handler()
}

// Package-level helpers against the global manager.

// RecordFetchBatch counts one issued fetch batch.
func RecordFetchBatch() { globalManager.RecordFetchBatch() }

// RecordFetchError counts one failed fetch batch.
func RecordFetchError() { globalManager.RecordFetchError() }

// RecordStaleDiscard counts one discarded stale fetch result.
func RecordStaleDiscard() { globalManager.RecordStaleDiscard() }

// ObserveMergeDuration records one merge pass duration in seconds.
func ObserveMergeDuration(seconds float64) { globalManager.ObserveMergeDuration(seconds) }

// RecordMutation counts one successful mutation of the given kind.
func RecordMutation(kind string) { globalManager.RecordMutation(kind) }

// RecordMutationError counts one server-rejected mutation of the given kind.
func RecordMutationError(kind string) { globalManager.RecordMutationError(kind) }

// RecordValidationError counts one local validation failure.
func RecordValidationError() { globalManager.RecordValidationError() }

// UpdateCacheSize sets the cached measurement count.
func UpdateCacheSize(n int) { globalManager.UpdateCacheSize(n) }

// UpdateActiveSeries sets the displayed series count.
func UpdateActiveSeries(n int) { globalManager.UpdateActiveSeries(n) }

// UpdateSeriesCount sets the known series count.
func UpdateSeriesCount(n int) { globalManager.UpdateSeriesCount(n) }

// UpdateSelectionSize sets the selected measurement count.
func UpdateSelectionSize(n int) { globalManager.UpdateSelectionSize(n) }

// RecordAPIRequest counts one API call with its HTTP status.
func RecordAPIRequest(endpoint, status string) { globalManager.RecordAPIRequest(endpoint, status) }

// ObserveAPILatency records one API call duration in seconds.
func ObserveAPILatency(endpoint string, seconds float64) {
	globalManager.ObserveAPILatency(endpoint, seconds)
}

// RecordAPICallError counts one transport-level API failure.
func RecordAPICallError(endpoint string) { globalManager.RecordAPICallError(endpoint) }

// Manager methods.

// RecordFetchBatch counts one issued fetch batch.
func (m *Manager) RecordFetchBatch() {
	if m.enabled {
		m.fetchBatches.Inc()
	}
}

// RecordFetchError counts one failed fetch batch.
func (m *Manager) RecordFetchError() {
	if m.enabled {
		m.fetchErrors.Inc()
	}
}

// RecordStaleDiscard counts one discarded stale fetch result.
func (m *Manager) RecordStaleDiscard() {
	if m.enabled {
		m.staleDiscards.Inc()
	}
}

// ObserveMergeDuration records one merge pass duration in seconds.
func (m *Manager) ObserveMergeDuration(seconds float64) {
	if m.enabled {
		m.mergeDuration.Observe(seconds)
	}
}

// RecordMutation counts one successful mutation of the given kind.
func (m *Manager) RecordMutation(kind string) {
	if m.enabled {
		m.mutations.WithLabelValues(kind).Inc()
	}
}

// RecordMutationError counts one server-rejected mutation of the given kind.
func (m *Manager) RecordMutationError(kind string) {
	if m.enabled {
		m.mutationErrors.WithLabelValues(kind).Inc()
	}
}

// RecordValidationError counts one local validation failure.
func (m *Manager) RecordValidationError() {
	if m.enabled {
		m.validationErrors.Inc()
	}
}

// UpdateCacheSize sets the cached measurement count.
func (m *Manager) UpdateCacheSize(n int) {
	if m.enabled {
		m.cacheSize.Set(float64(n))
	}
}

// UpdateActiveSeries sets the displayed series count.
func (m *Manager) UpdateActiveSeries(n int) {
	if m.enabled {
		m.activeSeries.Set(float64(n))
	}
}

// UpdateSeriesCount sets the known series count.
func (m *Manager) UpdateSeriesCount(n int) {
	if m.enabled {
		m.seriesCount.Set(float64(n))
	}
}

// UpdateSelectionSize sets the selected measurement count.
func (m *Manager) UpdateSelectionSize(n int) {
	if m.enabled {
		m.selectionSize.Set(float64(n))
	}
}

// RecordAPIRequest counts one API call with its HTTP status.
func (m *Manager) RecordAPIRequest(endpoint, status string) {
	if m.enabled {
		m.apiRequests.WithLabelValues(endpoint, status).Inc()
	}
}

// ObserveAPILatency records one API call duration in seconds.
func (m *Manager) ObserveAPILatency(endpoint string, seconds float64) {
	if m.enabled {
		m.apiLatency.WithLabelValues(endpoint).Observe(seconds)
	}
}

// RecordAPICallError counts one transport-level API failure.
func (m *Manager) RecordAPICallError(endpoint string) {
	if m.enabled {
		m.apiCallErrors.WithLabelValues(endpoint).Inc()
	}
}
