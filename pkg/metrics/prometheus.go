// Package metrics provides Prometheus metrics for the hackreg registration service.
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
	registry         prometheus.Registerer

	// Registration funnel
	usersTotal     prometheus.Gauge
	usersApplied   prometheus.Gauge
	usersAccepted  prometheus.Gauge
	usersConfirmed prometheus.Gauge

	submissions     *prometheus.CounterVec
	submissionError *prometheus.CounterVec
	statusChanges   *prometheus.CounterVec
	settingsUpdates *prometheus.CounterVec

	// Derived views
	statusResolutions     *prometheus.CounterVec
	statisticsLatency     prometheus.Histogram
	statisticsEntries     prometheus.Gauge
	statisticsSkipped     prometheus.Counter
	repositoryLatency     *prometheus.HistogramVec
	repositoryErrors      *prometheus.CounterVec
	catalogBranches       prometheus.Gauge
	unsupportedBrowserHit prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry keeps Go default collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init rebuilds the global collectors on a fresh registry with opts. Call it
// at startup before any handler captures GetRegistry.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(append([]Option(nil), opts...), WithPrometheusRegistry(registry))
	globalManager = NewManager(opts...)
	customRegistry = registry
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hackreg",
		subsystem:        "registration",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.usersTotal = auto.NewGauge(m.gaugeOpts("users_total", "Registered user accounts"))
	m.usersApplied = auto.NewGauge(m.gaugeOpts("users_applied", "Users with a completed application"))
	m.usersAccepted = auto.NewGauge(m.gaugeOpts("users_accepted", "Accepted applicants"))
	m.usersConfirmed = auto.NewGauge(m.gaugeOpts("users_confirmed", "Accepted applicants who confirmed"))

	m.submissions = auto.NewCounterVec(m.counterOpts("submissions_total", "Accepted form submissions by kind and branch"),
		[]string{"kind", "branch"})
	m.submissionError = auto.NewCounterVec(m.counterOpts("submission_errors_total", "Rejected form submissions by kind and reason"),
		[]string{"kind", "reason"})
	m.statusChanges = auto.NewCounterVec(m.counterOpts("status_changes_total", "Administrative applicant status changes"),
		[]string{"change"})
	m.settingsUpdates = auto.NewCounterVec(m.counterOpts("settings_updates_total", "Administrative settings updates"),
		[]string{"setting"})

	m.statusResolutions = auto.NewCounterVec(m.counterOpts("status_resolutions_total", "Dashboard status labels resolved, by rule"),
		[]string{"rule"})
	m.statisticsLatency = auto.NewHistogram(m.histogramOpts("statistics_aggregation_milliseconds", "Latency of general statistics aggregation"))
	m.statisticsEntries = auto.NewGauge(m.gaugeOpts("statistics_entries", "Entries produced by the last statistics aggregation"))
	m.statisticsSkipped = auto.NewCounter(m.counterOpts("statistics_skipped_users_total", "Applicants skipped because their branch no longer exists"))
	m.repositoryLatency = auto.NewHistogramVec(m.histogramOpts("repository_latency_milliseconds", "Repository operation latency"),
		[]string{"operation"})
	m.repositoryErrors = auto.NewCounterVec(m.counterOpts("repository_errors_total", "Repository operation failures"),
		[]string{"operation"})
	m.catalogBranches = auto.NewGauge(m.gaugeOpts("catalog_branches", "Branches defined in the question catalog"))
	m.unsupportedBrowserHit = auto.NewCounter(m.counterOpts("unsupported_browser_total", "Page requests answered with the unsupported-browser page"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration"),
		[]string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "HTTP errors by type and severity"),
		[]string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// UpdateUserCounts sets the registration funnel gauges.
func UpdateUserCounts(total, applied, accepted, confirmed int) {
	globalManager.usersTotal.Set(float64(total))
	globalManager.usersApplied.Set(float64(applied))
	globalManager.usersAccepted.Set(float64(accepted))
	globalManager.usersConfirmed.Set(float64(confirmed))
}

// RecordSubmission counts an accepted application or confirmation.
func RecordSubmission(kind, branch string) {
	globalManager.submissions.WithLabelValues(kind, branch).Inc()
}

// RecordSubmissionError counts a rejected submission.
func RecordSubmissionError(kind, reason string) {
	globalManager.submissionError.WithLabelValues(kind, reason).Inc()
}

// RecordStatusChange counts an administrative status change such as "accepted" or "unaccepted".
func RecordStatusChange(change string) {
	globalManager.statusChanges.WithLabelValues(change).Inc()
}

// RecordSettingsUpdate counts a settings change.
func RecordSettingsUpdate(setting string) {
	globalManager.settingsUpdates.WithLabelValues(setting).Inc()
}

// RecordStatusResolution counts which status rule produced a dashboard label.
func RecordStatusResolution(rule string) {
	globalManager.statusResolutions.WithLabelValues(rule).Inc()
}

// RecordStatisticsAggregation records one aggregation run.
func RecordStatisticsAggregation(latencyMs float64, entries, skippedUsers int) {
	globalManager.statisticsLatency.Observe(latencyMs)
	globalManager.statisticsEntries.Set(float64(entries))
	globalManager.statisticsSkipped.Add(float64(skippedUsers))
}

// RecordRepositoryLatency records the latency of a repository operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordRepositoryError counts a failed repository operation.
func RecordRepositoryError(operation string) {
	globalManager.repositoryErrors.WithLabelValues(operation).Inc()
}

// UpdateCatalogBranches sets the number of catalog branches.
func UpdateCatalogBranches(count int) {
	globalManager.catalogBranches.Set(float64(count))
}

// RecordUnsupportedBrowser counts an unsupported-browser page.
func RecordUnsupportedBrowser() {
	globalManager.unsupportedBrowserHit.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
