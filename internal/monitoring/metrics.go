package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	ServiceErrors   *prometheus.CounterVec

	// Memory metrics
	MemoryEntries  prometheus.Gauge
	MemorySearches prometheus.Counter
	EmbedCalls     *prometheus.CounterVec

	// Heartbeat metrics
	HeartbeatBeats  prometheus.Counter
	ReflectionsRun  prometheus.Counter
	SandboxRejected *prometheus.CounterVec

	// Scraper metrics
	ScrapeRequests *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "companion_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "companion_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "companion_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		ServiceCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_service_calls_total",
				Help: "Total number of service tool calls",
			},
			[]string{"service", "tool", "status"},
		),
		ServiceDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "companion_service_duration_seconds",
				Help:    "Service tool call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "tool"},
		),
		ServiceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_service_errors_total",
				Help: "Total number of service tool errors",
			},
			[]string{"service", "tool"},
		),

		MemoryEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "companion_memory_entries",
				Help: "Number of entries in semantic memory",
			},
		),
		MemorySearches: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_memory_searches_total",
				Help: "Total number of memory searches",
			},
		),
		EmbedCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_embed_calls_total",
				Help: "Total number of embedding service calls",
			},
			[]string{"status"},
		),

		HeartbeatBeats: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_heartbeat_beats_total",
				Help: "Total number of heartbeat beats",
			},
		),
		ReflectionsRun: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_reflections_total",
				Help: "Total number of reflections generated",
			},
		),
		SandboxRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_sandbox_rejections_total",
				Help: "Total number of sandbox boundary rejections",
			},
			[]string{"code"},
		),

		ScrapeRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_scrape_requests_total",
				Help: "Total number of scrape requests",
			},
			[]string{"status"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "companion_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "companion_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records metrics for a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordServiceCall records metrics for a service tool execution
func (m *Metrics) RecordServiceCall(service, tool, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, tool, status).Inc()
	m.ServiceDuration.WithLabelValues(service, tool).Observe(duration.Seconds())
	if status != "success" {
		m.ServiceErrors.WithLabelValues(service, tool).Inc()
	}
}

// RecordSandboxRejection records a boundary rejection by code
func (m *Metrics) RecordSandboxRejection(code string) {
	m.SandboxRejected.WithLabelValues(code).Inc()
}
