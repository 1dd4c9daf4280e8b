package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Decisions by endpoint class and outcome: allowed, denied, error
	Decisions *prometheus.CounterVec
	Degraded  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_ratelimit_decisions_total",
			Help: "Rate limit decisions by endpoint class and outcome",
		}, []string{"class", "outcome"}),
		Degraded: f.NewGauge(prometheus.GaugeOpts{
			Name: "carewatch_ratelimit_degraded",
			Help: "Whether rate limiting runs on the in-process fallback",
		}),
	}
}

func (m *Metrics) IncrementDecision(class, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(class, outcome).Inc()
	}
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
