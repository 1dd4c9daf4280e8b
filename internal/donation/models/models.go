package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
)

// AnonymousDonor replaces an empty donor label.
const AnonymousDonor = "Anonymous"

const MaxDonorLabelLength = 200

// DonationRecord is one monetary donation. Immutable once appended.
//
// Invariants:
//   - InstitutionID is non-empty
//   - Amount is positive with at most two decimal places
//   - DonorLabel is non-empty ("Anonymous" when the donor gave none)
//   - ID and RecordedAt are assigned by the ledger
type DonationRecord struct {
	ID            domain.DonationID    `json:"id"`
	InstitutionID domain.InstitutionID `json:"institution_id"`
	DonorLabel    string               `json:"donor"`
	Amount        decimal.Decimal      `json:"amount"`
	RecordedAt    time.Time            `json:"recorded_at"`
	ReceiptRef    string               `json:"receipt_ref"`
}

// NewDonation validates a donation before it is appended. The ledger assigns the id.
func NewDonation(institutionID domain.InstitutionID, donorLabel string, amount decimal.Decimal, receiptRef string, now time.Time) (*DonationRecord, error) {
	if institutionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution id is required")
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	donorLabel = NormalizeDonor(donorLabel)
	if len(donorLabel) > MaxDonorLabelLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "donor label is too long")
	}
	if receiptRef == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "receipt reference is required")
	}
	return &DonationRecord{
		InstitutionID: institutionID,
		DonorLabel:    donorLabel,
		Amount:        amount,
		RecordedAt:    now,
		ReceiptRef:    receiptRef,
	}, nil
}

// NormalizeDonor trims the label and substitutes AnonymousDonor when empty.
func NormalizeDonor(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return AnonymousDonor
	}
	return label
}

// RecordDonationRequest is the JSON body of POST /institutions/{id}/donations.
type RecordDonationRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Donor  string          `json:"donor"`
}
