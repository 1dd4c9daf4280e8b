package store

import (
	"cmp"
	"context"

	"carewatch/internal/donation/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/ledger"
)

// InMemory keeps donations in a per-institution partitioned ledger.
type InMemory struct {
	ledger *ledger.Memory[models.DonationRecord]
}

func NewInMemory() *InMemory {
	return &InMemory{ledger: ledger.NewMemory[models.DonationRecord]()}
}

// Append assigns the next id and stores a copy of rec.
func (s *InMemory) Append(ctx context.Context, rec *models.DonationRecord) (*models.DonationRecord, error) {
	stored, err := s.ledger.Append(ctx, rec.InstitutionID.String(), func(seq int64) models.DonationRecord {
		out := *rec
		out.ID = domain.DonationID(seq)
		return out
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *InMemory) ListByInstitution(_ context.Context, id domain.InstitutionID) ([]models.DonationRecord, error) {
	return s.ledger.List(id.String()), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]models.DonationRecord, error) {
	return s.ledger.All(byID), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	return s.ledger.Len(), nil
}

func byID(a, b models.DonationRecord) int {
	return cmp.Compare(a.ID, b.ID)
}
