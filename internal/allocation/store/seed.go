package store

import (
	"time"

	"github.com/shopspring/decimal"

	"carewatch/internal/allocation/models"
)

// SeedAllocations returns the demo expenditure entries for O001.
func SeedAllocations() []models.FundAllocationRecord {
	day := func(m time.Month, d int) time.Time {
		return time.Date(2023, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []models.FundAllocationRecord{
		{InstitutionID: "O001", Source: models.SourceGovernment, Amount: decimal.NewFromInt(50000), UsageCategory: models.UsageInfrastructure, ProofRef: "proofs/O001/inv_1.pdf", RecordedAt: day(time.September, 1)},
		{InstitutionID: "O001", Source: models.SourcePublicDonation, Amount: decimal.NewFromInt(15000), UsageCategory: models.UsageEducation, ProofRef: "proofs/O001/inv_2.pdf", RecordedAt: day(time.September, 15)},
		{InstitutionID: "O001", Source: models.SourcePublicDonation, Amount: decimal.NewFromInt(10000), UsageCategory: models.UsageHealthcare, ProofRef: "proofs/O001/inv_3.pdf", RecordedAt: day(time.October, 2)},
	}
}
