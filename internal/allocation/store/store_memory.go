package store

import (
	"cmp"
	"context"

	"carewatch/internal/allocation/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/ledger"
)

// InMemory keeps allocations in a per-institution partitioned ledger with
// its own id sequence, independent of donations.
type InMemory struct {
	ledger *ledger.Memory[models.FundAllocationRecord]
}

func NewInMemory() *InMemory {
	return &InMemory{ledger: ledger.NewMemory[models.FundAllocationRecord]()}
}

func (s *InMemory) Append(ctx context.Context, rec *models.FundAllocationRecord) (*models.FundAllocationRecord, error) {
	stored, err := s.ledger.Append(ctx, rec.InstitutionID.String(), func(seq int64) models.FundAllocationRecord {
		out := *rec
		out.ID = domain.AllocationID(seq)
		return out
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *InMemory) ListByInstitution(_ context.Context, id domain.InstitutionID) ([]models.FundAllocationRecord, error) {
	return s.ledger.List(id.String()), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]models.FundAllocationRecord, error) {
	return s.ledger.All(func(a, b models.FundAllocationRecord) int {
		return cmp.Compare(a.ID, b.ID)
	}), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	return s.ledger.Len(), nil
}
