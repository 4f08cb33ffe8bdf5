// Package metrics provides Prometheus metrics for the accounts service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Business
	usersCreated   prometheus.Counter
	userConflicts  prometheus.Counter
	usersListed    prometheus.Counter
	listResultSize prometheus.Histogram

	// Persistence gateway
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Connection pool
	poolOpen         prometheus.Gauge
	poolInUse        prometheus.Gauge
	poolIdle         prometheus.Gauge
	poolMaxOpen      prometheus.Gauge
	poolWaitCount    prometheus.Gauge
	poolWaitDuration prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide metrics registry

var globalManager = NewManager(WithPrometheusRegistry(customRegistry)) //nolint:gochecknoglobals // singleton recorder

// Init rebuilds the global manager from opts on a fresh registry. Call it
// once at startup, before GetRegistry is handed to an HTTP handler.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	manager := NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
	customRegistry = registry
	globalManager = manager
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "accounts",
		subsystem:        "api",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.usersCreated = auto.NewCounter(m.counterOpts("users_created_total", "Total number of accounts created"))
	m.userConflicts = auto.NewCounter(m.counterOpts("user_conflicts_total", "Total number of account creations rejected as duplicates"))
	m.usersListed = auto.NewCounter(m.counterOpts("user_list_requests_total", "Total number of successful user listings"))
	m.listResultSize = auto.NewHistogram(m.histogramOpts("user_list_size", "Number of records returned per listing",
		prometheus.ExponentialBuckets(1, 4, 8)))

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_operation_duration_milliseconds", "Persistence gateway statement latency in milliseconds", m.histogramBuckets),
		[]string{"operation", "outcome"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Persistence gateway failures by operation and class"),
		[]string{"operation", "kind"},
	)

	m.poolOpen = auto.NewGauge(m.gaugeOpts("pool_open_connections", "Established connections, in use and idle"))
	m.poolInUse = auto.NewGauge(m.gaugeOpts("pool_in_use_connections", "Connections currently borrowed by a statement"))
	m.poolIdle = auto.NewGauge(m.gaugeOpts("pool_idle_connections", "Idle connections"))
	m.poolMaxOpen = auto.NewGauge(m.gaugeOpts("pool_max_open_connections", "Configured pool bound"))
	m.poolWaitCount = auto.NewGauge(m.gaugeOpts("pool_wait_count", "Cumulative number of statements that waited for a connection"))
	m.poolWaitDuration = auto.NewGauge(m.gaugeOpts("pool_wait_duration_milliseconds", "Cumulative time spent waiting for a connection"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))
}

// PoolStats is the subset of connection pool statistics exported as gauges.
type PoolStats struct {
	MaxOpen        int
	Open           int
	InUse          int
	Idle           int
	WaitCount      int64
	WaitDurationMs float64
}

// RecordUserCreated increments the accounts created counter.
func RecordUserCreated() { globalManager.usersCreated.Inc() }

// RecordUserConflict increments the duplicate account counter.
func RecordUserConflict() { globalManager.userConflicts.Inc() }

// RecordUserList records a successful listing and its size.
func RecordUserList(size int) {
	globalManager.usersListed.Inc()
	globalManager.listResultSize.Observe(float64(size))
}

// RecordStoreOperation records the latency of a gateway statement.
func RecordStoreOperation(operation, outcome string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation, outcome).Observe(latencyMs)
}

// RecordStoreError counts a classified gateway failure.
func RecordStoreError(operation, kind string) {
	globalManager.storeErrors.WithLabelValues(operation, kind).Inc()
}

// UpdatePoolStats publishes a snapshot of the connection pool.
func UpdatePoolStats(s PoolStats) {
	globalManager.poolMaxOpen.Set(float64(s.MaxOpen))
	globalManager.poolOpen.Set(float64(s.Open))
	globalManager.poolInUse.Set(float64(s.InUse))
	globalManager.poolIdle.Set(float64(s.Idle))
	globalManager.poolWaitCount.Set(float64(s.WaitCount))
	globalManager.poolWaitDuration.Set(s.WaitDurationMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
