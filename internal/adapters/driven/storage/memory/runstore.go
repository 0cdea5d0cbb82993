package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// Ensure IngestRunStore implements the interface.
var _ driven.IngestRunStore = (*IngestRunStore)(nil)

// IngestRunStore is an in-memory implementation of driven.IngestRunStore.
type IngestRunStore struct {
	mu    sync.RWMutex
	runs  map[string]domain.IngestRun
	order []string
}

// NewIngestRunStore creates a new in-memory run store.
func NewIngestRunStore() *IngestRunStore {
	return &IngestRunStore{
		runs: make(map[string]domain.IngestRun),
	}
}

// SaveRun stores or updates a run record.
func (s *IngestRunStore) SaveRun(_ context.Context, run *domain.IngestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = *run
	return nil
}

// GetRun retrieves a run by ID.
func (s *IngestRunStore) GetRun(_ context.Context, id string) (*domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// LatestRun retrieves the most recently created run for a user.
func (s *IngestRunStore) LatestRun(_ context.Context, userID string) (*domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		run := s.runs[s.order[i]]
		if run.UserID == userID {
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ActiveRun retrieves a queued or running run for a user.
func (s *IngestRunStore) ActiveRun(_ context.Context, userID string) (*domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		run := s.runs[s.order[i]]
		if run.UserID == userID && !run.Terminal() {
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteUser removes all run records belonging to a user.
func (s *IngestRunStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		if s.runs[id].UserID == userID {
			delete(s.runs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}
