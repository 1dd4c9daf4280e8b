package service

import (
	"context"
	"errors"
	"sort"

	"carewatch/internal/access"
	"carewatch/internal/catalog/models"
	"carewatch/internal/catalog/store"
	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
)

type Store interface {
	FindByID(ctx context.Context, id domain.InstitutionID) (*models.Institution, error)
	ListAll(ctx context.Context) ([]models.Institution, error)
	ListInspections(ctx context.Context) ([]models.InspectionReport, error)
}

// Service is the read-only face of the catalog. The ledgers and the
// scheduler call RequireInstitution before every write.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list institutions")
	}
	return list, nil
}

func (s *Service) GetInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error) {
	inst, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	return inst, nil
}

// RequireInstitution returns a not-found error unless id names a catalog entry.
func (s *Service) RequireInstitution(ctx context.Context, id domain.InstitutionID) error {
	if id.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "institution id is required")
	}
	_, err := s.GetInstitution(ctx, id)
	return err
}

// ListInspections returns every inspection report with pending ones first,
// then the rest newest first.
func (s *Service) ListInspections(ctx context.Context, role domain.Role) ([]models.InspectionReport, error) {
	if err := access.Require(role, access.ViewInspections); err != nil {
		return nil, err
	}
	reports, err := s.store.ListInspections(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inspections")
	}
	sort.SliceStable(reports, func(i, j int) bool {
		pi := reports[i].Status == models.InspectionPending
		pj := reports[j].Status == models.InspectionPending
		if pi != pj {
			return pi
		}
		return reports[j].Date.Before(reports[i].Date)
	})
	return reports, nil
}
