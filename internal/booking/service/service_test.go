package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"carewatch/internal/booking/metrics"
	"carewatch/internal/booking/models"
	"carewatch/internal/booking/store"
	catalogService "carewatch/internal/catalog/service"
	catalogStore "carewatch/internal/catalog/store"
	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/platform/audit/publisher"
	auditmemory "carewatch/pkg/platform/audit/store/memory"
	"carewatch/pkg/requestcontext"
)

type BookingServiceSuite struct {
	suite.Suite
	ctx        context.Context
	auditStore *auditmemory.InMemoryStore
	metrics    *metrics.Metrics
	svc        *Service
}

func TestBookingServiceSuite(t *testing.T) {
	suite.Run(t, new(BookingServiceSuite))
}

var (
	visitDay = domain.Date{Year: 2023, Month: time.November, Day: 1}
	today    = time.Date(2023, 10, 20, 9, 30, 0, 0, time.UTC)
)

func (s *BookingServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), today)
	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = New(store.NewInMemory(), catalogService.New(catalogStore.NewSeeded()),
		WithMetrics(s.metrics),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

func (s *BookingServiceSuite) slots(inst domain.InstitutionID, date domain.Date) []models.TimeSlot {
	free, err := s.svc.AvailableSlots(s.ctx, domain.RolePublic, inst, date)
	s.Require().NoError(err)
	return free
}

func (s *BookingServiceSuite) TestEmptyDateOffersFullSlotSet() {
	s.Equal([]models.TimeSlot{models.SlotMorning, models.SlotAfternoon}, s.slots("O001", visitDay))
}

func (s *BookingServiceSuite) TestBookingScenario() {
	var visitorA *models.Booking

	s.Run("visitor A takes the morning slot", func() {
		b, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", visitDay, "Visitor A", models.SlotMorning)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, b.Status)
		s.False(b.ID.IsNil())
		visitorA = b
		s.Equal([]models.TimeSlot{models.SlotAfternoon}, s.slots("O001", visitDay))
	})

	s.Run("a second request for the same slot conflicts", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", visitDay, "Visitor C", models.SlotMorning)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)
	})

	s.Run("visitor B takes the afternoon slot", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", visitDay, "Visitor B", models.SlotAfternoon)
		s.Require().NoError(err)
		s.Empty(s.slots("O001", visitDay))
	})

	s.Run("other institutions are unaffected", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O002", visitDay, "Visitor A", models.SlotMorning)
		s.Require().NoError(err)
	})

	s.Run("cancel frees the slot and a repeat cancel is a no-op", func() {
		first, err := s.svc.CancelBooking(s.ctx, domain.RolePublic, visitorA.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCancelled, first.Status)
		s.Require().NotNil(first.CancelledAt)
		s.Equal([]models.TimeSlot{models.SlotMorning}, s.slots("O001", visitDay))

		later := requestcontext.WithTime(s.ctx, today.Add(time.Hour))
		second, err := s.svc.CancelBooking(later, domain.RolePublic, visitorA.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCancelled, second.Status)
		s.Equal(*first.CancelledAt, *second.CancelledAt)

		got, err := s.svc.GetBooking(s.ctx, visitorA.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCancelled, got.Status)
	})

	s.Run("freed slot can be booked again", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", visitDay, "Visitor C", models.SlotMorning)
		s.Require().NoError(err)
	})

	events, err := s.auditStore.ListByInstitution(s.ctx, "O001")
	s.Require().NoError(err)
	var created, cancelled int
	for _, e := range events {
		switch e.Action {
		case string(audit.EventBookingCreated):
			created++
		case string(audit.EventBookingCancelled):
			cancelled++
		}
	}
	s.Equal(3, created)
	s.Equal(1, cancelled)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Conflicts))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Cancelled))
}

func (s *BookingServiceSuite) TestConcurrentRequestsForOneSlot() {
	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		won       int
		conflicts int
	)
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", visitDay, "Visitor", models.SlotMorning)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts++
			default:
				s.Failf("unexpected error", "request %d: %v", i, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(1, won)
	s.Equal(n-1, conflicts)
	s.Equal([]models.TimeSlot{models.SlotAfternoon}, s.slots("O001", visitDay))
}

func (s *BookingServiceSuite) TestValidation() {
	yesterday := domain.Date{Year: 2023, Month: time.October, Day: 19}

	s.Run("past date is rejected even when free", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", yesterday, "Visitor", models.SlotMorning)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("today is allowed", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O003", domain.DateOf(today), "Visitor", models.SlotAfternoon)
		s.Require().NoError(err)
	})

	s.Run("past date is rejected when taken", func() {
		past := requestcontext.WithTime(context.Background(), today.AddDate(0, 0, -10))
		_, err := s.svc.CreateBooking(past, domain.RolePublic, "O002", yesterday, "Visitor", models.SlotMorning)
		s.Require().NoError(err)

		_, err = s.svc.CreateBooking(s.ctx, domain.RolePublic, "O002", yesterday, "Visitor", models.SlotMorning)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
	})

	s.Run("blank visitor name", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", visitDay, " ", models.SlotMorning)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown slot", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O001", visitDay, "Visitor", models.TimeSlot("12:00-13:00"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown institution", func() {
		_, err := s.svc.CreateBooking(s.ctx, domain.RolePublic, "O404", visitDay, "Visitor", models.SlotMorning)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.svc.AvailableSlots(s.ctx, domain.RolePublic, "O404", visitDay)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("zero date for slots", func() {
		_, err := s.svc.AvailableSlots(s.ctx, domain.RolePublic, "O001", domain.Date{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *BookingServiceSuite) TestCapabilityChecks() {
	for _, role := range []domain.Role{domain.RoleInspector, domain.RoleGovernmentAuthority, domain.RoleInstitutionAdmin} {
		s.Run(string(role), func() {
			_, err := s.svc.AvailableSlots(s.ctx, role, "O001", visitDay)
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
			_, err = s.svc.CreateBooking(s.ctx, role, "O001", visitDay, "Visitor", models.SlotMorning)
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
			_, err = s.svc.CancelBooking(s.ctx, role, domain.NewBookingID())
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		})
	}
}

func (s *BookingServiceSuite) TestUnknownBooking() {
	_, err := s.svc.CancelBooking(s.ctx, domain.RolePublic, domain.NewBookingID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.GetBooking(s.ctx, domain.NewBookingID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
