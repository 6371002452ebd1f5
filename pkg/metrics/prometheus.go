// Package metrics provides Prometheus metrics for the consensus tally service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	sizeBuckets    []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Election and tally metrics
	electionsSubmitted *prometheus.CounterVec
	electionsDuplicate prometheus.Counter
	talliesTotal       *prometheus.CounterVec
	tallyLatency       *prometheus.HistogramVec
	profileRejections  *prometheus.CounterVec
	ballotsPerTally    prometheus.Histogram
	candidatesPerTally prometheus.Histogram

	// Result store
	storedResults  prometheus.Gauge
	pendingTallies prometheus.Gauge

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueTotal      prometheus.Counter
	queueDequeueTotal      prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithRegistry the
// collectors go to prometheus.DefaultRegisterer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "consensus",
		subsystem:      "tally",
		latencyBuckets: prometheus.ExponentialBuckets(0.05, 2, 16),
		sizeBuckets:    prometheus.ExponentialBuckets(1, 4, 8),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.latencyBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.electionsSubmitted = m.counterVec("elections_submitted_total", "Elections accepted for asynchronous tallying", "rule")
	m.electionsDuplicate = m.counter("elections_duplicate_total", "Election submissions rejected as duplicates of an earlier id")
	m.talliesTotal = m.counterVec("tallies_total", "Completed tally computations by rule and outcome", "rule", "outcome")
	m.tallyLatency = m.histogramVec("tally_latency_milliseconds", "Tally computation latency in milliseconds", "rule")
	m.profileRejections = m.counterVec("profile_rejections_total", "Preference profiles rejected by the audit", "reason")
	m.ballotsPerTally = m.histogram("ballots_per_tally", "Number of ballots in tallied profiles", m.sizeBuckets)
	m.candidatesPerTally = m.histogram("candidates_per_tally", "Number of candidates in tallied profiles", m.sizeBuckets)

	m.storedResults = m.gauge("stored_results", "Tally records currently held by the result store")
	m.pendingTallies = m.gauge("pending_tallies", "Elections accepted but not yet tallied")

	m.queueSize = m.gauge("queue_size", "Current size of the tally queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the tally queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Elections enqueued for tallying")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Elections dequeued by workers")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts refused by the queue")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue call latency in milliseconds", m.latencyBuckets)

	m.workerCount = m.gauge("worker_count", "Configured number of tally workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently tallying an election")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-election worker latency in milliseconds", m.latencyBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Elections a worker failed to tally or store")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpRateLimited = m.counterVec("http_rate_limited_total", "HTTP requests refused by the rate limiter", "endpoint")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.latencyBuckets)
}

// RecordElectionSubmitted counts an election accepted for rule.
func RecordElectionSubmitted(rule string) {
	globalManager.electionsSubmitted.WithLabelValues(rule).Inc()
}

// RecordElectionDuplicate counts a duplicate submission.
func RecordElectionDuplicate() {
	globalManager.electionsDuplicate.Inc()
}

// RecordTally records a finished tally. outcome is "ok" or "error".
func RecordTally(rule, outcome string, latencyMs float64) {
	globalManager.talliesTotal.WithLabelValues(rule, outcome).Inc()
	globalManager.tallyLatency.WithLabelValues(rule).Observe(latencyMs)
}

// RecordProfileSize records the shape of a tallied profile.
func RecordProfileSize(ballots, candidates int) {
	globalManager.ballotsPerTally.Observe(float64(ballots))
	globalManager.candidatesPerTally.Observe(float64(candidates))
}

// RecordProfileRejection counts a profile rejected for reason.
func RecordProfileRejection(reason string) {
	globalManager.profileRejections.WithLabelValues(reason).Inc()
}

// UpdateStoredResults sets the number of stored tally records.
func UpdateStoredResults(count int) {
	globalManager.storedResults.Set(float64(count))
}

// UpdatePendingTallies sets the number of pending elections.
func UpdatePendingTallies(count int) {
	globalManager.pendingTallies.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of busy workers by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records per-election worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPRateLimited counts a request refused by the rate limiter.
func RecordHTTPRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

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
