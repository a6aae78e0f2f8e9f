// Package metrics provides Prometheus metrics for the wrapped service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the wrapped service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Recap metrics
	recapsComputed     prometheus.Counter
	recapFailures      *prometheus.CounterVec
	aggregationLatency prometheus.Histogram
	recapScoresSeen    prometheus.Histogram

	// Upstream provider metrics
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Auth metrics
	oauthLogins           prometheus.Counter
	oauthCallbackFailures *prometheus.CounterVec
	pendingStates         prometheus.Gauge

	// Image proxy metrics
	proxyRequests *prometheus.CounterVec
	proxyBytes    prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before GetRegistry is handed to the
// scrape handler and before anything records.
func Init(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	customRegistry = registry
	globalManager = NewManager(opts...)
	return globalManager
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "osu",
		subsystem:        "wrapped",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often gauge updaters should sample.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.recapsComputed = auto.NewCounter(m.counterOpts(
		"recaps_computed_total", "Total number of yearly recaps computed"))
	m.recapFailures = auto.NewCounterVec(m.counterOpts(
		"recap_failures_total", "Total number of recap requests that failed, by failure kind"),
		[]string{"kind"})
	m.aggregationLatency = auto.NewHistogram(m.histogramOpts(
		"aggregation_latency_milliseconds", "Time spent aggregating a recap in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50}))
	m.recapScoresSeen = auto.NewHistogram(m.histogramOpts(
		"recap_scores_seen", "Number of best scores considered per recap",
		[]float64{0, 1, 5, 10, 25, 50, 100}))

	m.upstreamRequests = auto.NewCounterVec(m.counterOpts(
		"upstream_requests_total", "Total number of provider API requests by endpoint and status"),
		[]string{"endpoint", "status"})
	m.upstreamLatency = auto.NewHistogramVec(m.histogramOpts(
		"upstream_latency_milliseconds", "Provider API latency in milliseconds", m.histogramBuckets),
		[]string{"endpoint"})

	m.oauthLogins = auto.NewCounter(m.counterOpts(
		"oauth_logins_total", "Total number of completed OAuth logins"))
	m.oauthCallbackFailures = auto.NewCounterVec(m.counterOpts(
		"oauth_callback_failures_total", "Total number of failed OAuth callbacks by reason"),
		[]string{"reason"})
	m.pendingStates = auto.NewGauge(m.gaugeOpts(
		"oauth_pending_states", "Number of issued OAuth states awaiting a callback"))

	m.proxyRequests = auto.NewCounterVec(m.counterOpts(
		"proxy_requests_total", "Total number of image proxy requests by outcome"),
		[]string{"outcome"})
	m.proxyBytes = auto.NewCounter(m.counterOpts(
		"proxy_bytes_total", "Total number of image bytes relayed by the proxy"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})
	m.rateLimited = auto.NewCounterVec(m.counterOpts(
		"rate_limited_total", "Total number of requests rejected by the rate limiter"),
		[]string{"endpoint"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Recap metrics.

// RecordRecapComputed counts a recap and the number of scores it considered.
func RecordRecapComputed(scores int, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.recapsComputed.Inc()
	globalManager.recapScoresSeen.Observe(float64(scores))
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordRecapFailure counts a failed recap request by kind (auth, upstream, malformed).
func RecordRecapFailure(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.recapFailures.WithLabelValues(kind).Inc()
}

// Upstream metrics.

// RecordUpstreamRequest records a provider call with its final status.
func RecordUpstreamRequest(endpoint string, status int, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// Auth metrics.

// RecordOAuthLogin counts a completed login.
func RecordOAuthLogin() {
	if !globalManager.enabled {
		return
	}
	globalManager.oauthLogins.Inc()
}

// RecordOAuthCallbackFailure counts a failed callback by reason.
func RecordOAuthCallbackFailure(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.oauthCallbackFailures.WithLabelValues(reason).Inc()
}

// UpdatePendingStates sets the number of outstanding OAuth states.
func UpdatePendingStates(n int) {
	globalManager.pendingStates.Set(float64(n))
}

// Proxy metrics.

// RecordProxyRequest counts a proxy request by outcome (ok, rejected, failed).
func RecordProxyRequest(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.proxyRequests.WithLabelValues(outcome).Inc()
}

// RecordProxyBytes adds relayed image bytes.
func RecordProxyBytes(n int64) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.proxyBytes.Add(float64(n))
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	if !globalManager.enabled {
		return
	}
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// System metrics.

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

// Snapshot gathers the custom registry and returns metric family names
// mapped to the summed value of their counters and gauges.
func Snapshot() (map[string]float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}
	out := make(map[string]float64, len(families))
	for _, f := range families {
		var sum float64
		for _, mt := range f.GetMetric() {
			switch {
			case mt.GetCounter() != nil:
				sum += mt.GetCounter().GetValue()
			case mt.GetGauge() != nil:
				sum += mt.GetGauge().GetValue()
			case mt.GetHistogram() != nil:
				sum += float64(mt.GetHistogram().GetSampleCount())
			}
		}
		out[f.GetName()] = sum
	}
	return out, nil
}
