package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics shared by every handler.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	PanicsRecovered prometheus.Counter
}

// New creates and registers the HTTP metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carewatch_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_http_requests_total",
			Help: "HTTP requests by route pattern and status class",
		}, []string{"method", "route", "status"}),
		PanicsRecovered: f.NewCounter(prometheus.CounterOpts{
			Name: "carewatch_http_panics_recovered_total",
			Help: "Handler panics converted into 500 responses",
		}),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) IncrementPanics() {
	m.PanicsRecovered.Inc()
}
