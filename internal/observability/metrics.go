package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	denials     *prometheus.CounterVec
	forwarded   *prometheus.CounterVec
	queueDepth  prometheus.Gauge
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP errors by domain error code.",
		}, []string{"route", "method", "code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_transitions_total",
			Help: "Applied ticket lifecycle operations.",
		}, []string{"operation", "to"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_denials_total",
			Help: "Rejected ticket lifecycle operations by error code.",
		}, []string{"operation", "code"}),
		forwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_events_forwarded_total",
			Help: "Lifecycle events handed to the external sink by outcome (sent, failed, dropped).",
		}, []string{"event_type", "outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helpdesk_event_queue_depth",
			Help: "Events waiting to be forwarded to the external sink.",
		}),
	}
	reg.MustRegister(m.requests, m.latency, m.errors, m.transitions, m.denials, m.forwarded, m.queueDepth)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordTransition counts an applied lifecycle operation.
func (m *Metrics) RecordTransition(operation, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, to).Inc()
}

// RecordDenial counts a rejected lifecycle operation.
func (m *Metrics) RecordDenial(operation, code string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(operation, code).Inc()
}

// RecordForward counts one event leaving the forwarding queue.
func (m *Metrics) RecordForward(eventType, outcome string) {
	if m == nil {
		return
	}
	m.forwarded.WithLabelValues(eventType, outcome).Inc()
}

// SetQueueDepth reports the forwarding backlog.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
