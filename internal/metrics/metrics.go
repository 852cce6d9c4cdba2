// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the agent's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	updatesFetched  prometheus.Counter
	updatesSkipped  prometheus.Counter
	updatesRejected prometheus.Counter
	fetchErrors     *prometheus.CounterVec
	commands        *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	scans           *prometheus.CounterVec
	hostsAlive      prometheus.Gauge
	scanDuration    prometheus.Histogram
	offset          prometheus.Gauge
	telemetrySent   prometheus.Counter
	weatherReports  *prometheus.CounterVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updatesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lanwatch_updates_fetched_total",
			Help: "Updates returned by the remote API.",
		}),
		updatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lanwatch_updates_skipped_total",
			Help: "Updates at or below the persisted offset.",
		}),
		updatesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lanwatch_updates_rejected_total",
			Help: "Updates from senders other than the authorized principal.",
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanwatch_fetch_errors_total",
			Help: "Failed update fetches by kind.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanwatch_commands_total",
			Help: "Dispatched commands by name.",
		}, []string{"command"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanwatch_messages_sent_total",
			Help: "Outbound notifications by result.",
		}, []string{"result"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanwatch_scan_requests_total",
			Help: "Scan requests by outcome.",
		}, []string{"outcome"}),
		hostsAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lanwatch_scan_hosts_alive",
			Help: "Reachable hosts found by the last completed sweep.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lanwatch_scan_duration_seconds",
			Help:    "Wall time of a subnet sweep.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		offset: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lanwatch_update_offset",
			Help: "Highest processed update id.",
		}),
		telemetrySent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lanwatch_telemetry_reports_total",
			Help: "Periodic telemetry reports emitted.",
		}),
		weatherReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanwatch_weather_reports_total",
			Help: "Weather reports by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.updatesFetched, m.updatesSkipped, m.updatesRejected, m.fetchErrors,
		m.commands, m.messagesSent, m.scans, m.hostsAlive, m.scanDuration,
		m.offset, m.telemetrySent, m.weatherReports,
	)
	return m
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) UpdatesFetched(n int) {
	if m == nil {
		return
	}
	m.updatesFetched.Add(float64(n))
}

func (m *Metrics) UpdateSkipped() {
	if m == nil {
		return
	}
	m.updatesSkipped.Inc()
}

func (m *Metrics) UpdateRejected() {
	if m == nil {
		return
	}
	m.updatesRejected.Inc()
}

// FetchError counts a failed fetch; kind is "transient" or "malformed".
func (m *Metrics) FetchError(kind string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) MessageSent(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messagesSent.WithLabelValues(result).Inc()
}

func (m *Metrics) ScanRequest(outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ScanFinished(alive int, took time.Duration) {
	if m == nil {
		return
	}
	m.hostsAlive.Set(float64(alive))
	m.scanDuration.Observe(took.Seconds())
}

func (m *Metrics) Offset(id int64) {
	if m == nil {
		return
	}
	m.offset.Set(float64(id))
}

func (m *Metrics) TelemetrySent() {
	if m == nil {
		return
	}
	m.telemetrySent.Inc()
}

func (m *Metrics) WeatherReport(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.weatherReports.WithLabelValues(result).Inc()
}
