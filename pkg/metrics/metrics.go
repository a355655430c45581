package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Context label values.
const (
	ContextOriginal = "original"
	ContextBorrowed = "borrowed"
)

// Outcome label values.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Borrow result label values.
const (
	BorrowAcquired = "acquired"
	BorrowRejected = "rejected"
	BorrowStopped  = "stopped"
)

// Metrics holds the Prometheus collectors of one server. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	borrowsTotal    *prometheus.CounterVec
	borrowActive    prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stubd_requests_total",
				Help: "Total number of dispatched requests by context and outcome",
			},
			[]string{"context", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stubd_request_duration_seconds",
				Help:    "Time spent deciding and producing a response",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"context"},
		),

		borrowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stubd_borrows_total",
				Help: "Total number of borrow attempts by result",
			},
			[]string{"result"},
		),

		borrowActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stubd_borrow_active",
				Help: "Whether a borrow scope is currently installed (1) or not (0)",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.borrowsTotal,
		m.borrowActive,
	)

	return m
}

// RecordRequest records one dispatched request.
func (m *Metrics) RecordRequest(context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(context, outcome).Inc()
	m.requestDuration.WithLabelValues(context).Observe(duration.Seconds())
}

// RecordBorrow records a borrow attempt.
func (m *Metrics) RecordBorrow(result string) {
	if m == nil {
		return
	}
	m.borrowsTotal.WithLabelValues(result).Inc()
}

// SetBorrowActive flips the borrow gauge.
func (m *Metrics) SetBorrowActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.borrowActive.Set(1)
	} else {
		m.borrowActive.Set(0)
	}
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
