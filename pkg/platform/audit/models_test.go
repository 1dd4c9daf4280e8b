package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carewatch/pkg/domain"
	"carewatch/pkg/requestcontext"
)

func TestAuditEvent_Category(t *testing.T) {
	assert.Equal(t, CategoryFinancial, EventDonationRecorded.Category())
	assert.Equal(t, CategoryFinancial, EventAllocationRecorded.Category())
	assert.Equal(t, CategoryVisits, EventBookingCancelled.Category())
	assert.Equal(t, CategoryOperations, EventAdvisoryRequested.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("unknown").Category())
}

func TestNewEvent_ReadsRequestContext(t *testing.T) {
	now := time.Date(2023, 11, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRole(ctx, domain.RoleInstitutionAdmin)
	ctx = requestcontext.WithRequestID(ctx, "req-9")
	ctx = requestcontext.WithClientMetadata(ctx, "192.0.2.1", "curl/8.0")

	e := NewEvent(ctx, EventAllocationRecorded, "O002", "3")

	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, "allocation_recorded", e.Action)
	assert.Equal(t, CategoryFinancial, e.Category)
	assert.Equal(t, "institution_admin", e.Role)
	assert.Equal(t, "req-9", e.RequestID)
	assert.Equal(t, "192.0.2.1", e.ClientIP)
	assert.Equal(t, "O002", e.InstitutionID)
	assert.Equal(t, "3", e.ResourceID)
}
