// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expenses"

// Metrics groups the collectors of one server instance. Each instance owns
// its registry so several servers can live in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	rateLimited     prometheus.Counter
	suspicious      prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route, method and status.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"route", "method", "status"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Mutation attempts by entity, operation and outcome.",
			},
			[]string{"entity", "operation", "outcome"},
		),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		suspicious: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "suspicious_requests_total",
			Help:      "Requests flagged by the suspicious pattern detector.",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requestDuration.
		WithLabelValues(route, method, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

// ObserveMutation records the outcome of a create, update or delete.
func (m *Metrics) ObserveMutation(entity, operation, outcome string) {
	m.mutations.WithLabelValues(entity, operation, outcome).Inc()
}

// RateLimited counts one rejected request.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Suspicious counts one flagged request.
func (m *Metrics) Suspicious() {
	m.suspicious.Inc()
}

// TrackRateLimitClients exports the number of clients the rate limiter
// currently holds a window for. A second call for the same instance is a
// no-op.
func (m *Metrics) TrackRateLimitClients(count func() int) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limit_clients",
		Help:      "Clients with an open rate limit window.",
	}, func() float64 { return float64(count()) })

	var are prometheus.AlreadyRegisteredError
	if err := m.registry.Register(gauge); err != nil && !errors.As(err, &are) {
		panic(err)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
