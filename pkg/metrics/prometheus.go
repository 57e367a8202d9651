// Package metrics provides Prometheus metrics for the clout service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the clout service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Verification
	picksVerified        *prometheus.CounterVec
	picksSkipped         *prometheus.CounterVec
	fightIndexFallbacks  prometheus.Counter
	verificationRuns     *prometheus.CounterVec
	verificationDuration prometheus.Histogram
	eventFailures        prometheus.Counter
	statsUpdates         prometheus.Counter
	statsUpdateErrors    prometheus.Counter
	recomputes           prometheus.Counter
	notifyErrors         prometheus.Counter

	// Leaderboard and community
	totalCappers prometheus.Gauge
	picksCreated prometheus.Counter
	follows      *prometheus.CounterVec

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	queueDuplicates         prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "clout",
		subsystem:        "service",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.picksVerified = m.counterVec("picks_verified_total", "Picks verified, by outcome", "outcome")
	m.picksSkipped = m.counterVec("picks_skipped_total", "Picks left open during verification, by reason", "reason")
	m.fightIndexFallbacks = m.counter("fight_index_fallback_total", "Picks without a fight index that were matched against fight 0")
	m.verificationRuns = m.counterVec("verification_runs_total", "Verification batch runs, by trigger", "trigger")
	m.verificationDuration = m.histogram("verification_run_duration_milliseconds", "Duration of a verification batch run", m.histogramBuckets)
	m.eventFailures = m.counter("verification_event_failures_total", "Events whose verification failed inside a batch")
	m.statsUpdates = m.counter("capper_stats_updates_total", "Capper stat updates applied")
	m.statsUpdateErrors = m.counter("capper_stats_update_errors_total", "Capper stat updates that failed")
	m.recomputes = m.counter("capper_stats_recomputes_total", "Full capper stat recomputations")
	m.notifyErrors = m.counter("notify_errors_total", "Verified-pick notifications that could not be published")

	m.totalCappers = m.gauge("cappers_total", "Cappers on the leaderboard")
	m.picksCreated = m.counter("picks_created_total", "Picks created")
	m.follows = m.counterVec("follow_changes_total", "Follow and unfollow operations", "action")

	m.queueSize = m.gauge("queue_size", "Verification jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Verification queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Verification jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Verification jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Verification jobs rejected by the queue")
	m.queueDuplicates = m.counter("queue_duplicates_total", "Verification jobs dropped because the event was already queued")
	m.workerCount = m.gauge("worker_count", "Verification workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-job verification latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Verification jobs that returned an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func on() bool { return globalManager != nil && globalManager.enabled }

// RecordPickVerified counts a verified pick.
func RecordPickVerified(correct bool) {
	if !on() {
		return
	}
	outcome := "incorrect"
	if correct {
		outcome = "correct"
	}
	globalManager.picksVerified.WithLabelValues(outcome).Inc()
}

// RecordPickSkipped counts a pick left open, labelled with why.
func RecordPickSkipped(reason string) {
	if on() {
		globalManager.picksSkipped.WithLabelValues(reason).Inc()
	}
}

// RecordFightIndexFallback counts a pick resolved against fight 0.
func RecordFightIndexFallback() {
	if on() {
		globalManager.fightIndexFallbacks.Inc()
	}
}

// RecordVerificationRun records one batch run.
func RecordVerificationRun(trigger string, durationMs float64) {
	if !on() {
		return
	}
	globalManager.verificationRuns.WithLabelValues(trigger).Inc()
	globalManager.verificationDuration.Observe(durationMs)
}

// RecordEventFailure counts an event that failed inside a batch.
func RecordEventFailure() {
	if on() {
		globalManager.eventFailures.Inc()
	}
}

// RecordStatsUpdate counts an applied capper stat update.
func RecordStatsUpdate() {
	if on() {
		globalManager.statsUpdates.Inc()
	}
}

// RecordStatsUpdateError counts a failed capper stat update.
func RecordStatsUpdateError() {
	if on() {
		globalManager.statsUpdateErrors.Inc()
	}
}

// RecordRecompute counts a full recomputation.
func RecordRecompute() {
	if on() {
		globalManager.recomputes.Inc()
	}
}

// RecordNotifyError counts a failed notification publish.
func RecordNotifyError() {
	if on() {
		globalManager.notifyErrors.Inc()
	}
}

// UpdateTotalCappers sets the leaderboard size.
func UpdateTotalCappers(count int) {
	if on() {
		globalManager.totalCappers.Set(float64(count))
	}
}

// RecordPickCreated counts a new pick.
func RecordPickCreated() {
	if on() {
		globalManager.picksCreated.Inc()
	}
}

// RecordFollowChange counts a follow ("follow") or unfollow ("unfollow").
func RecordFollowChange(action string) {
	if on() {
		globalManager.follows.WithLabelValues(action).Inc()
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// RecordQueueDuplicate counts a job dropped by dedupe.
func RecordQueueDuplicate() {
	if on() {
		globalManager.queueDuplicates.Inc()
	}
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrors.Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
