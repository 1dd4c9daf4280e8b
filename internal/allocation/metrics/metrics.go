package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fund allocation ledger.
type Metrics struct {
	// Recorded allocations by source and usage category
	Recorded *prometheus.CounterVec

	// Accepted proof sizes
	ProofBytes prometheus.Histogram

	// Rejected writes by error code
	Rejected *prometheus.CounterVec

	// Proofs left behind because cleanup after a failed append also failed
	OrphanedProofs prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_allocations_recorded_total",
			Help: "Fund allocations appended to the ledger by source and usage category",
		}, []string{"source", "usage_category"}),

		ProofBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carewatch_allocation_proof_bytes",
			Help:    "Size of accepted proof uploads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),

		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_allocations_rejected_total",
			Help: "Allocation writes rejected by error code",
		}, []string{"code"}),

		OrphanedProofs: f.NewCounter(prometheus.CounterOpts{
			Name: "carewatch_allocation_orphaned_proofs_total",
			Help: "Stored proofs that could not be deleted after a failed append",
		}),
	}
}

func (m *Metrics) ObserveRecorded(source, usage string, proofBytes int) {
	if m == nil {
		return
	}
	m.Recorded.WithLabelValues(source, usage).Inc()
	m.ProofBytes.Observe(float64(proofBytes))
}

func (m *Metrics) IncrementRejected(code string) {
	if m != nil {
		m.Rejected.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) IncrementOrphanedProofs() {
	if m != nil {
		m.OrphanedProofs.Inc()
	}
}
