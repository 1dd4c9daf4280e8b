package store

import (
	"time"

	"github.com/shopspring/decimal"

	"carewatch/internal/donation/models"
)

// SeedDonations returns the monetary demo donations in the order they are
// replayed. In-kind gifts are not ledger records and are omitted.
func SeedDonations() []models.DonationRecord {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []models.DonationRecord{
		{InstitutionID: "O001", DonorLabel: "R. Sharma", Amount: decimal.NewFromInt(5000), RecordedAt: day(2023, time.October, 15)},
		{InstitutionID: "O002", DonorLabel: models.AnonymousDonor, Amount: decimal.NewFromInt(25000), RecordedAt: day(2023, time.October, 12)},
		{InstitutionID: "O001", DonorLabel: models.AnonymousDonor, Amount: decimal.NewFromInt(200), RecordedAt: day(2023, time.October, 10)},
		{InstitutionID: "O001", DonorLabel: models.AnonymousDonor, Amount: decimal.NewFromInt(200), RecordedAt: day(2023, time.October, 10)},
		{InstitutionID: "O001", DonorLabel: models.AnonymousDonor, Amount: decimal.NewFromInt(200), RecordedAt: day(2023, time.October, 10)},
	}
}
