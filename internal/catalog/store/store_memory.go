package store

import (
	"context"
	"sync"

	"carewatch/internal/catalog/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/sentinel"
)

// ErrNotFound is returned when an institution does not exist.
// Alias to sentinel.ErrNotFound for consistent error handling across stores.
var ErrNotFound = sentinel.ErrNotFound

// InMemory is a read-only catalog loaded once at construction.
type InMemory struct {
	mu           sync.RWMutex
	order        []domain.InstitutionID
	institutions map[domain.InstitutionID]models.Institution
	inspections  []models.InspectionReport
}

func New(institutions []models.Institution, inspections []models.InspectionReport) *InMemory {
	s := &InMemory{institutions: make(map[domain.InstitutionID]models.Institution, len(institutions))}
	for _, inst := range institutions {
		if _, dup := s.institutions[inst.ID]; !dup {
			s.order = append(s.order, inst.ID)
		}
		s.institutions[inst.ID] = inst.Clone()
	}
	s.inspections = append(s.inspections, inspections...)
	return s
}

// NewSeeded returns a catalog preloaded with the bundled seed data.
func NewSeeded() *InMemory {
	return New(SeedInstitutions(), SeedInspections())
}

func (s *InMemory) FindByID(_ context.Context, id domain.InstitutionID) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := inst.Clone()
	return &out, nil
}

// ListAll returns institutions in seed order.
func (s *InMemory) ListAll(_ context.Context) ([]models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Institution, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.institutions[id].Clone())
	}
	return out, nil
}

func (s *InMemory) ListInspections(_ context.Context) ([]models.InspectionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.InspectionReport(nil), s.inspections...), nil
}
