package monitoring

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
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

	// Sandbox metrics
	RunsTotal        *prometheus.CounterVec
	RunsFinished     *prometheus.CounterVec
	FrameErrors      *prometheus.CounterVec
	InstancesLive    *prometheus.GaugeVec
	TeardownDuration *prometheus.HistogramVec
	TeardownErrors   *prometheus.CounterVec
	GPUResidents     prometheus.Gauge

	// Upstream service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	ServiceErrors   *prometheus.CounterVec

	// Analytics metrics
	AnalyticsEvents *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	TotalRuns         int64   `json:"total_runs"`
	FailedRuns        int64   `json:"failed_runs"`
	FrameErrors       int64   `json:"frame_errors"`
	LiveInstances     int64   `json:"live_instances"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"`
	RequestCount      int64   `json:"-"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

var _ sandbox.Recorder = (*Metrics)(nil)

// NewMetrics creates a new metrics collector registered with reg. A nil reg
// uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Sandbox metrics
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_runs_total",
				Help: "Total number of programs started",
			},
			[]string{"kind"},
		),
		RunsFinished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_runs_finished_total",
				Help: "Programs that reached live or failed to start",
			},
			[]string{"kind", "outcome"},
		),
		FrameErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_frame_errors_total",
				Help: "Frames whose callback threw",
			},
			[]string{"kind"},
		),
		InstancesLive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sketchbox_instances_live",
				Help: "Running instances holding the mount slot",
			},
			[]string{"kind"},
		),
		TeardownDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_teardown_duration_seconds",
				Help:    "Instance teardown duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"kind"},
		),
		TeardownErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_teardown_errors_total",
				Help: "Teardowns that could not release every resource",
			},
			[]string{"kind"},
		),
		GPUResidents: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sketchbox_gpu_resources",
				Help: "Geometries, materials, textures and renderers currently allocated",
			},
		),

		// Upstream service metrics
		ServiceCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_service_calls_total",
				Help: "Total number of upstream service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sketchbox_service_duration_seconds",
				Help:    "Upstream service call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "method"},
		),
		ServiceErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_service_errors_total",
				Help: "Total number of upstream service errors",
			},
			[]string{"service", "method", "error_type"},
		),

		// Analytics metrics
		AnalyticsEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_analytics_events_total",
				Help: "Analytics events emitted",
			},
			[]string{"event"},
		),

		// WebSocket metrics
		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sketchbox_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketchbox_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sketchbox_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RunStarted counts a program handed to a runner.
func (m *Metrics) RunStarted(kind sandbox.Kind) {
	m.RunsTotal.WithLabelValues(kind.String()).Inc()
	m.mu.Lock()
	m.snapshot.TotalRuns++
	m.mu.Unlock()
}

// RunFinished counts how a run ended its start-up.
func (m *Metrics) RunFinished(kind sandbox.Kind, outcome string) {
	m.RunsFinished.WithLabelValues(kind.String(), outcome).Inc()
	if outcome != sandbox.OutcomeLive {
		m.mu.Lock()
		m.snapshot.FailedRuns++
		m.mu.Unlock()
	}
}

// FrameFailed counts a contained frame error.
func (m *Metrics) FrameFailed(kind sandbox.Kind) {
	m.FrameErrors.WithLabelValues(kind.String()).Inc()
	m.mu.Lock()
	m.snapshot.FrameErrors++
	m.mu.Unlock()
}

// InstanceLive tracks instances entering and leaving the mount slot.
func (m *Metrics) InstanceLive(kind sandbox.Kind, live bool) {
	g := m.InstancesLive.WithLabelValues(kind.String())
	delta := int64(1)
	if live {
		g.Inc()
	} else {
		g.Dec()
		delta = -1
	}
	m.mu.Lock()
	m.snapshot.LiveInstances += delta
	if m.snapshot.LiveInstances < 0 {
		m.snapshot.LiveInstances = 0
	}
	m.mu.Unlock()
}

// TeardownFinished records how long releasing an instance took.
func (m *Metrics) TeardownFinished(kind sandbox.Kind, d time.Duration, err error) {
	m.TeardownDuration.WithLabelValues(kind.String()).Observe(d.Seconds())
	if err != nil {
		m.TeardownErrors.WithLabelValues(kind.String()).Inc()
	}
}

// GPUResources sets the number of live GPU-side resources.
func (m *Metrics) GPUResources(n int) {
	m.GPUResidents.Set(float64(n))
}

// RecordServiceCall records an upstream service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordServiceError records an upstream service error
func (m *Metrics) RecordServiceError(service, method, errorType string) {
	m.ServiceErrors.WithLabelValues(service, method, errorType).Inc()
}

// RecordEvent counts an analytics event
func (m *Metrics) RecordEvent(event string) {
	m.AnalyticsEvents.WithLabelValues(event).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
