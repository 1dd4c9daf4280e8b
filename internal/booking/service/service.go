package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"carewatch/internal/access"
	"carewatch/internal/booking/metrics"
	"carewatch/internal/booking/models"
	"carewatch/internal/booking/store"
	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/requestcontext"
)

var tracer = otel.Tracer("carewatch/booking")

type Store interface {
	// Reserve stores a confirmed booking, or returns store.ErrConflict when a
	// confirmed booking already holds the slot. The check and the write are atomic.
	Reserve(ctx context.Context, b *models.Booking) error
	BookedSlots(ctx context.Context, institutionID domain.InstitutionID, date domain.Date) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id domain.BookingID) (*models.Booking, error)
	Cancel(ctx context.Context, id domain.BookingID, at time.Time) (*models.Booking, bool, error)
}

type Institutions interface {
	RequireInstitution(ctx context.Context, id domain.InstitutionID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service allocates visit slots. It never double-books a confirmed slot.
type Service struct {
	store        Store
	institutions Institutions
	auditor      AuditPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(store Store, institutions Institutions, opts ...Option) *Service {
	s := &Service{
		store:        store,
		institutions: institutions,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AvailableSlots returns the slots with no confirmed booking, in display order.
func (s *Service) AvailableSlots(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, date domain.Date) ([]models.TimeSlot, error) {
	if err := access.Require(role, access.BookVisit); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "date is required")
	}
	if err := s.institutions.RequireInstitution(ctx, institutionID); err != nil {
		return nil, err
	}
	booked, err := s.store.BookedSlots(ctx, institutionID, date)
	if err != nil {
		return nil, storeError(err, "failed to load booked slots")
	}
	free := make([]models.TimeSlot, 0, len(models.FullSlotSet()))
	for _, slot := range models.FullSlotSet() {
		if !slices.Contains(booked, slot) {
			free = append(free, slot)
		}
	}
	return free, nil
}

// CreateBooking reserves timeSlot on visitDate. A past date is rejected
// before availability is consulted.
func (s *Service) CreateBooking(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, visitDate domain.Date, visitorName string, timeSlot models.TimeSlot) (*models.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.CreateBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("institution_id", institutionID.String()),
		attribute.String("visit_date", visitDate.String()),
		attribute.String("time_slot", string(timeSlot)),
	)

	b, err := s.create(ctx, role, institutionID, visitDate, visitorName, timeSlot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("booking_id", b.ID.String()))
	s.metrics.IncrementCreated()
	s.emitAudit(ctx, audit.NewEvent(ctx, audit.EventBookingCreated, b.InstitutionID.String(), b.ID.String()))
	return b, nil
}

func (s *Service) create(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, visitDate domain.Date, visitorName string, timeSlot models.TimeSlot) (*models.Booking, error) {
	if err := access.Require(role, access.BookVisit); err != nil {
		return nil, err
	}
	b, err := models.NewBooking(domain.NewBookingID(), institutionID, visitDate, timeSlot, visitorName, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.institutions.RequireInstitution(ctx, institutionID); err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.store.Reserve(ctx, b)
	s.metrics.ObserveReserve(time.Since(start))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.metrics.IncrementConflicts()
			return nil, dErrors.New(dErrors.CodeConflict, "time slot is already booked").
				WithMeta("time_slot", string(timeSlot))
		}
		return nil, storeError(err, "failed to reserve slot")
	}
	return b, nil
}

// CancelBooking frees the booking's slot. Cancelling an already cancelled
// booking succeeds without changing it.
func (s *Service) CancelBooking(ctx context.Context, role domain.Role, id domain.BookingID) (*models.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.CancelBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", id.String()))

	if err := access.Require(role, access.BookVisit); err != nil {
		return nil, err
	}
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "booking id is required")
	}
	b, changed, err := s.store.Cancel(ctx, id, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "booking not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		return nil, storeError(err, "failed to cancel booking")
	}
	span.SetAttributes(attribute.Bool("changed", changed))
	if changed {
		s.metrics.IncrementCancelled()
		s.emitAudit(ctx, audit.NewEvent(ctx, audit.EventBookingCancelled, b.InstitutionID.String(), b.ID.String()))
	}
	return b, nil
}

func (s *Service) GetBooking(ctx context.Context, id domain.BookingID) (*models.Booking, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "booking id is required")
	}
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "booking not found")
		}
		return nil, storeError(err, "failed to load booking")
	}
	return b, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}

// storeError keeps timeout codes from the lock layer and hides everything
// else behind an internal error.
func storeError(err error, msg string) error {
	if dErrors.HasCode(err, dErrors.CodeTimeout) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func toValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}
