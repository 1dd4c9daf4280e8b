package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks calls to the anomaly advisor.
type Metrics struct {
	// Calls by outcome: ok, timeout, error, circuit_open, not_configured
	Calls    *prometheus.CounterVec
	Duration prometheus.Histogram
	Findings *prometheus.CounterVec
	// 1 while the breaker is open
	CircuitOpen prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_advisor_calls_total",
			Help: "Advisor calls by outcome",
		}, []string{"outcome"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carewatch_advisor_call_duration_seconds",
			Help:    "Duration of advisor calls that reached the advisor",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 9),
		}),
		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_advisor_findings_total",
			Help: "Findings reported by the advisor",
		}, []string{"severity"}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "carewatch_advisor_circuit_open",
			Help: "Whether the advisor circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncrementCall(outcome string) {
	if m != nil {
		m.Calls.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.Duration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementFindings(severity string) {
	if m != nil {
		m.Findings.WithLabelValues(severity).Inc()
	}
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
