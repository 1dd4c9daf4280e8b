package storage

import (
	"context"
	"slices"
	"sync"
)

// InMemory keeps proofs in a map. Used in tests and when PROOF_DIR is unset.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[string][]byte)}
}

func (s *InMemory) Put(ctx context.Context, institutionID, filename, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := NewRef(institutionID, filename)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[ref] = slices.Clone(data)
	return ref, nil
}

func (s *InMemory) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[ref]; !ok {
		return ErrNotFound
	}
	delete(s.objects, ref)
	return nil
}

func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
