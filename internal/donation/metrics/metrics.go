package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics provides observability for the donation ledger.
type Metrics struct {
	// Recorded donations by institution
	Recorded *prometheus.CounterVec

	// Sum of recorded amounts by institution
	AmountTotal *prometheus.CounterVec

	// Rejected writes by error code
	Rejected *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_donations_recorded_total",
			Help: "Donations appended to the ledger by institution",
		}, []string{"institution"}),

		AmountTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_donations_amount_total",
			Help: "Sum of donated amounts by institution",
		}, []string{"institution"}),

		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_donations_rejected_total",
			Help: "Donation writes rejected by error code",
		}, []string{"code"}),
	}
}

// ObserveRecorded counts one appended donation and its amount.
func (m *Metrics) ObserveRecorded(institution string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.Recorded.WithLabelValues(institution).Inc()
	m.AmountTotal.WithLabelValues(institution).Add(amount.InexactFloat64())
}

func (m *Metrics) IncrementRejected(code string) {
	if m != nil {
		m.Rejected.WithLabelValues(code).Inc()
	}
}
