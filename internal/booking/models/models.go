package models

import (
	"strings"
	"time"

	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
)

// TimeSlot is a bookable visiting window.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "10:00-11:00"
	SlotAfternoon TimeSlot = "14:00-15:00"
)

// FullSlotSet returns every bookable slot in display order.
func FullSlotSet() []TimeSlot {
	return []TimeSlot{SlotMorning, SlotAfternoon}
}

func (s TimeSlot) IsValid() bool {
	return s == SlotMorning || s == SlotAfternoon
}

func ParseTimeSlot(raw string) (TimeSlot, error) {
	slot := TimeSlot(strings.TrimSpace(raw))
	if !slot.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "time slot must be one of: 10:00-11:00, 14:00-15:00")
	}
	return slot, nil
}

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

const MaxVisitorNameLength = 200

// Booking is a visit reservation. At most one confirmed booking exists per
// (institution, visit date, slot). The only permitted change is
// confirmed -> cancelled.
type Booking struct {
	ID            domain.BookingID     `json:"id"`
	InstitutionID domain.InstitutionID `json:"institution_id"`
	VisitDate     domain.Date          `json:"visit_date"`
	TimeSlot      TimeSlot             `json:"time_slot"`
	VisitorName   string               `json:"visitor_name"`
	Status        Status               `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
}

// SlotKey identifies the (institution, date) partition a booking belongs to.
func SlotKey(institutionID domain.InstitutionID, date domain.Date) string {
	return institutionID.String() + "|" + date.String()
}

func (b *Booking) Key() string {
	return SlotKey(b.InstitutionID, b.VisitDate)
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// Cancel moves a confirmed booking to cancelled. It reports false when the
// booking was already cancelled.
func (b *Booking) Cancel(at time.Time) bool {
	if b.Status == StatusCancelled {
		return false
	}
	b.Status = StatusCancelled
	b.CancelledAt = &at
	return true
}

// Clone returns a copy that shares no pointers with b.
func (b *Booking) Clone() *Booking {
	out := *b
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		out.CancelledAt = &at
	}
	return &out
}

// NewBooking validates a reservation request against today's date.
func NewBooking(id domain.BookingID, institutionID domain.InstitutionID, visitDate domain.Date, slot TimeSlot, visitorName string, now time.Time) (*Booking, error) {
	if institutionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution id is required")
	}
	if visitDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "visit date is required")
	}
	if visitDate.Before(domain.DateOf(now.UTC())) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "visit date must not be in the past")
	}
	visitorName = strings.TrimSpace(visitorName)
	if visitorName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "visitor name is required")
	}
	if len(visitorName) > MaxVisitorNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "visitor name is too long")
	}
	if !slot.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "time slot must be one of: 10:00-11:00, 14:00-15:00")
	}
	return &Booking{
		ID:            id,
		InstitutionID: institutionID,
		VisitDate:     visitDate,
		TimeSlot:      slot,
		VisitorName:   visitorName,
		Status:        StatusConfirmed,
		CreatedAt:     now,
	}, nil
}

// CreateBookingRequest is the JSON body of POST /institutions/{id}/bookings.
type CreateBookingRequest struct {
	VisitDate   string `json:"visit_date"`
	VisitorName string `json:"visitor_name"`
	TimeSlot    string `json:"time_slot"`
}

type SlotsResponse struct {
	Date  domain.Date `json:"date"`
	Slots []TimeSlot  `json:"slots"`
}
