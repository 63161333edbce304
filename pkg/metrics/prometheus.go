// Package metrics provides Prometheus metrics for the swiss tournament service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Tournament
	playersRegistered prometheus.Counter
	matchesReported   prometheus.Counter
	matchesDuplicate  prometheus.Counter
	resets            *prometheus.CounterVec
	pairingsGenerated prometheus.Counter
	pairingErrors     *prometheus.CounterVec
	standingsQueries  prometheus.Counter
	playersCurrent    prometheus.Gauge
	matchesCurrent    prometheus.Gauge

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Notification queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Live feed
	liveClients    prometheus.Gauge
	liveBroadcasts prometheus.Counter

	// Snapshots
	snapshotsExported prometheus.Counter
	snapshotErrors    prometheus.Counter
	snapshotLatency   prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "swiss",
		subsystem:        "tournament",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if len(buckets) == 0 {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.playersRegistered = auto.NewCounter(m.counterOpts("players_registered_total", "Total number of registered players"))
	m.matchesReported = auto.NewCounter(m.counterOpts("matches_reported_total", "Total number of reported match results"))
	m.matchesDuplicate = auto.NewCounter(m.counterOpts("matches_duplicate_total", "Match reports skipped because the idempotency key was already used"))
	m.resets = auto.NewCounterVec(m.counterOpts("resets_total", "Administrative resets by kind"), []string{"kind"})
	m.pairingsGenerated = auto.NewCounter(m.counterOpts("pairings_generated_total", "Total number of successful pairing computations"))
	m.pairingErrors = auto.NewCounterVec(m.counterOpts("pairing_errors_total", "Pairing computations that failed, by reason"), []string{"reason"})
	m.standingsQueries = auto.NewCounter(m.counterOpts("standings_queries_total", "Total number of standings reads"))
	m.playersCurrent = auto.NewGauge(m.gaugeOpts("players_current", "Players currently registered"))
	m.matchesCurrent = auto.NewGauge(m.gaugeOpts("matches_current", "Matches currently recorded"))

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_operation_duration_milliseconds", "Store transaction duration in milliseconds", nil),
		[]string{"op"},
	)
	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total", "Store operation failures by op and kind"), []string{"op", "kind"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("notify_queue_size", "Current size of the notification queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("notify_queue_capacity", "Capacity of the notification queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("notify_queue_utilization_ratio", "Notification queue size / capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("notify_queue_enqueued_total", "Events enqueued for notification"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("notify_queue_dequeued_total", "Events dequeued by workers"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("notify_queue_enqueue_errors_total", "Events dropped at enqueue"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("notify_queue_enqueue_duration_milliseconds", "Enqueue duration in milliseconds", nil))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of notification workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_duration_milliseconds", "Time to build and publish one update", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Failed update publications"))

	m.liveClients = auto.NewGauge(m.gaugeOpts("live_clients", "Connected live feed clients"))
	m.liveBroadcasts = auto.NewCounter(m.counterOpts("live_broadcasts_total", "Messages broadcast to live clients"))

	m.snapshotsExported = auto.NewCounter(m.counterOpts("snapshots_exported_total", "Standings snapshots uploaded"))
	m.snapshotErrors = auto.NewCounter(m.counterOpts("snapshot_errors_total", "Failed standings snapshot exports"))
	m.snapshotLatency = auto.NewHistogram(m.histogramOpts("snapshot_duration_milliseconds", "Snapshot export duration in milliseconds",
		[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error", nil),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Tournament metrics.

// RecordPlayerRegistered increments the registered players counter.
func RecordPlayerRegistered() { globalManager.playersRegistered.Inc() }

// RecordMatchReported increments the reported matches counter.
func RecordMatchReported() { globalManager.matchesReported.Inc() }

// RecordMatchDuplicate counts a report skipped by the idempotency check.
func RecordMatchDuplicate() { globalManager.matchesDuplicate.Inc() }

// RecordReset counts an administrative reset ("matches" or "players").
func RecordReset(kind string) { globalManager.resets.WithLabelValues(kind).Inc() }

// RecordPairingsGenerated counts a successful pairing computation.
func RecordPairingsGenerated() { globalManager.pairingsGenerated.Inc() }

// RecordPairingError counts a failed pairing computation.
func RecordPairingError(reason string) { globalManager.pairingErrors.WithLabelValues(reason).Inc() }

// RecordStandingsQuery counts a standings read.
func RecordStandingsQuery() { globalManager.standingsQueries.Inc() }

// UpdatePlayersCurrent sets the number of registered players.
func UpdatePlayersCurrent(count int) { globalManager.playersCurrent.Set(float64(count)) }

// UpdateMatchesCurrent sets the number of recorded matches.
func UpdateMatchesCurrent(count int) { globalManager.matchesCurrent.Set(float64(count)) }

// Store metrics.

// RecordStoreOperation observes the duration of one store transaction.
func RecordStoreOperation(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op, kind string) { globalManager.storeErrors.WithLabelValues(op, kind).Inc() }

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueued event.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued event.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts an event that could not be enqueued.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency observes enqueue latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency observes how long a worker took for one event.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed publication.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// Live feed metrics.

// UpdateLiveClients sets the number of connected live clients.
func UpdateLiveClients(count int) { globalManager.liveClients.Set(float64(count)) }

// RecordLiveBroadcast counts a broadcast message.
func RecordLiveBroadcast() { globalManager.liveBroadcasts.Inc() }

// Snapshot metrics.

// RecordSnapshotExported counts an uploaded snapshot and its duration.
func RecordSnapshotExported(latencyMs float64) {
	globalManager.snapshotsExported.Inc()
	globalManager.snapshotLatency.Observe(latencyMs)
}

// RecordSnapshotError counts a failed snapshot export.
func RecordSnapshotError() { globalManager.snapshotErrors.Inc() }

// HTTP metrics.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry that backs /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
