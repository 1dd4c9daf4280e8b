package memory

import (
	"context"
	"sync"

	audit "carewatch/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
	total  int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.InstitutionID] = append(s.events[event.InstitutionID], event)
	s.total++
	return nil
}

// ListByInstitution returns events for one institution in append order.
// Platform-wide events are listed under the empty id.
func (s *InMemoryStore) ListByInstitution(_ context.Context, institutionID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[institutionID]...), nil
}

// Len reports the number of stored events across all institutions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
	s.total = 0
}
