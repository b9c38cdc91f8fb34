package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the desktop backend.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Window manager metrics
	WindowsOpen    prometheus.Gauge
	WindowsOpened  prometheus.Counter
	WindowCommands *prometheus.CounterVec

	// Notification metrics
	NotificationsPushed prometheus.Counter

	// Narrative metrics
	WarningLevel   prometheus.Gauge
	IncidentsTotal *prometheus.CounterVec
	EndingsStarted *prometheus.CounterVec
	TasksPending   prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSEvents      *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		WindowsOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_windows_open",
				Help: "Number of windows currently in the registry",
			},
		),
		WindowsOpened: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_windows_opened_total",
				Help: "Total number of windows opened",
			},
		),
		WindowCommands: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_window_commands_total",
				Help: "Window lifecycle commands processed",
			},
			[]string{"command"},
		),

		NotificationsPushed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_notifications_pushed_total",
				Help: "Total number of notifications pushed",
			},
		),

		WarningLevel: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_conduct_warning_level",
				Help: "Current conduct warning level (0-7)",
			},
		),
		IncidentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_conduct_incidents_total",
				Help: "Conduct incidents reported, by flag",
			},
			[]string{"flag"},
		),
		EndingsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_endings_started_total",
				Help: "Ending sequences started, by type",
			},
			[]string{"type"},
		),
		TasksPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_narrative_tasks_pending",
				Help: "Scheduled narrative effects not yet fired",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_ws_events_total",
				Help: "Events broadcast to clients, by type",
			},
			[]string{"type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_uptime_seconds",
				Help: "Time since process start in seconds",
			},
		),
	}
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
