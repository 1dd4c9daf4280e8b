package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "carewatch/pkg/domain-errors"
)

// InstitutionID identifies a catalog institution (e.g. "O001").
// Invariant: non-empty, at most 64 characters of [A-Za-z0-9_-].
type InstitutionID string

// BookingID identifies a visit booking.
type BookingID uuid.UUID

// DonationID and AllocationID are ledger-assigned, strictly increasing sequence numbers.
// The two ledgers keep independent counters.
type (
	DonationID   int64
	AllocationID int64
)

var institutionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ParseInstitutionID validates an institution id received at a trust boundary.
func ParseInstitutionID(s string) (InstitutionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "institution id is required")
	}
	if !institutionIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "institution id is malformed")
	}
	return InstitutionID(s), nil
}

func (id InstitutionID) String() string { return string(id) }

// IsNil reports whether the id is empty.
func (id InstitutionID) IsNil() bool { return id == "" }

// ParseBookingID parses a booking id, rejecting malformed and nil UUIDs.
func ParseBookingID(s string) (BookingID, error) {
	if s == "" {
		return BookingID{}, dErrors.New(dErrors.CodeValidation, "booking id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return BookingID{}, dErrors.New(dErrors.CodeValidation, "booking id is malformed")
	}
	if parsed == uuid.Nil {
		return BookingID{}, dErrors.New(dErrors.CodeValidation, "booking id cannot be nil")
	}
	return BookingID(parsed), nil
}

// NewBookingID returns a fresh random booking id.
func NewBookingID() BookingID { return BookingID(uuid.New()) }

func (id BookingID) String() string { return uuid.UUID(id).String() }

func (id BookingID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id BookingID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *BookingID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id DonationID) String() string   { return strconv.FormatInt(int64(id), 10) }
func (id AllocationID) String() string { return strconv.FormatInt(int64(id), 10) }
