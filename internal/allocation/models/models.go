package models

import (
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
)

// Source is where allocated money came from.
type Source string

const (
	SourceGovernment     Source = "Government"
	SourcePublicDonation Source = "Public Donation"
)

func (s Source) IsValid() bool {
	return s == SourceGovernment || s == SourcePublicDonation
}

// ParseSource accepts the display value or its snake_case form, case-insensitively.
func ParseSource(raw string) (Source, error) {
	switch normalizeEnum(raw) {
	case "government":
		return SourceGovernment, nil
	case "public_donation":
		return SourcePublicDonation, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "source must be one of: Government, Public Donation")
}

// UsageCategory is what allocated money was spent on.
type UsageCategory string

const (
	UsageFood           UsageCategory = "Food"
	UsageEducation      UsageCategory = "Education"
	UsageHealthcare     UsageCategory = "Healthcare"
	UsageInfrastructure UsageCategory = "Infrastructure"
)

func (c UsageCategory) IsValid() bool {
	switch c {
	case UsageFood, UsageEducation, UsageHealthcare, UsageInfrastructure:
		return true
	}
	return false
}

func ParseUsageCategory(raw string) (UsageCategory, error) {
	for _, c := range []UsageCategory{UsageFood, UsageEducation, UsageHealthcare, UsageInfrastructure} {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "usage_category must be one of: Food, Education, Healthcare, Infrastructure")
}

func normalizeEnum(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
}

// FundAllocationRecord is one expenditure entry. Never edited or deleted.
type FundAllocationRecord struct {
	ID            domain.AllocationID  `json:"id"`
	InstitutionID domain.InstitutionID `json:"institution_id"`
	Source        Source               `json:"source"`
	Amount        decimal.Decimal      `json:"amount"`
	UsageCategory UsageCategory        `json:"usage_category"`
	ProofRef      string               `json:"proof_ref"`
	RecordedAt    time.Time            `json:"recorded_at"`
}

// Proof is an uploaded file backing an allocation. Size is the declared
// length; the service still enforces the limit on the bytes it reads.
type Proof struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateAllocation checks every field a record needs except the proof reference.
func ValidateAllocation(institutionID domain.InstitutionID, source Source, amount decimal.Decimal, usage UsageCategory) error {
	if institutionID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "institution id is required")
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}
	if !source.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid allocation source")
	}
	if !usage.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid usage category")
	}
	return nil
}

func NewAllocation(institutionID domain.InstitutionID, source Source, amount decimal.Decimal, usage UsageCategory, proofRef string, now time.Time) (*FundAllocationRecord, error) {
	if err := ValidateAllocation(institutionID, source, amount, usage); err != nil {
		return nil, err
	}
	if proofRef == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "proof reference is required")
	}
	return &FundAllocationRecord{
		InstitutionID: institutionID,
		Source:        source,
		Amount:        amount,
		UsageCategory: usage,
		ProofRef:      proofRef,
		RecordedAt:    now,
	}, nil
}
