package audit

import (
	"context"
	"time"

	"carewatch/pkg/requestcontext"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can route and retain them differently.
type EventCategory string

const (
	// CategoryFinancial covers ledger appends. These are never sampled.
	CategoryFinancial EventCategory = "financial"
	// CategoryVisits covers booking lifecycle transitions.
	CategoryVisits EventCategory = "visits"
	// CategoryOperations covers advisory calls and other routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// InstitutionID is the institution the action concerns; empty for
	// platform-wide actions such as an advisory run over the whole ledger.
	InstitutionID string
	// ResourceID identifies the record touched (donation id, booking id, ...).
	ResourceID string
	Role       string
	Decision   string
	Reason     string
	RequestID  string
	ClientIP   string
	Device     string
}

type AuditEvent string

const (
	EventDonationRecorded   AuditEvent = "donation_recorded"
	EventAllocationRecorded AuditEvent = "allocation_recorded"
	EventBookingCreated     AuditEvent = "booking_created"
	EventBookingCancelled   AuditEvent = "booking_cancelled"
	EventAdvisoryRequested  AuditEvent = "advisory_requested"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDonationRecorded:   CategoryFinancial,
	EventAllocationRecorded: CategoryFinancial,
	EventBookingCreated:     CategoryVisits,
	EventBookingCancelled:   CategoryVisits,
	EventAdvisoryRequested:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]Event, error)
}

// NewEvent starts an event for action, stamped with the request's clock,
// role and client metadata.
func NewEvent(ctx context.Context, action AuditEvent, institutionID, resourceID string) Event {
	return Event{
		Category:      action.Category(),
		Timestamp:     requestcontext.Now(ctx),
		Action:        string(action),
		InstitutionID: institutionID,
		ResourceID:    resourceID,
		Role:          string(requestcontext.Role(ctx)),
		RequestID:     requestcontext.RequestID(ctx),
		ClientIP:      requestcontext.ClientIP(ctx),
		Device:        requestcontext.Device(ctx),
	}
}
