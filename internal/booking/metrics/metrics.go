package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the booking scheduler.
type Metrics struct {
	Created   prometheus.Counter
	Conflicts prometheus.Counter
	Cancelled prometheus.Counter

	// Time spent in the check-and-reserve critical section
	ReserveLatency prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounter(prometheus.CounterOpts{
			Name: "carewatch_bookings_created_total",
			Help: "Confirmed bookings created",
		}),
		Conflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "carewatch_booking_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		}),
		Cancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "carewatch_bookings_cancelled_total",
			Help: "Bookings moved from confirmed to cancelled",
		}),
		ReserveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carewatch_booking_reserve_duration_seconds",
			Help:    "Duration of slot check-and-reserve",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

func (m *Metrics) ObserveReserve(d time.Duration) {
	if m != nil {
		m.ReserveLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

func (m *Metrics) IncrementConflicts() {
	if m != nil {
		m.Conflicts.Inc()
	}
}

func (m *Metrics) IncrementCancelled() {
	if m != nil {
		m.Cancelled.Inc()
	}
}
