package runtime

import (
	"context"
	"fmt"
	"sync"
)

// RunFilter narrows a run listing.
type RunFilter struct {
	Ruleset    string
	FailedOnly bool
	Limit      int
}

// RunStore persists validation runs. Implementations are safe for concurrent
// use.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	Close() error
}

// InMemoryRunStore keeps runs in process memory, newest first. The default
// backend for tests and local development.
type InMemoryRunStore struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
}

// NewInMemoryRunStore creates an empty in-memory run store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{runs: make(map[string]*Run)}
}

// SaveRun stores the run.
func (s *InMemoryRunStore) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run
	return nil
}

// GetRun returns the run by id.
func (s *InMemoryRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, nil
}

// ListRuns returns runs newest first, filtered.
func (s *InMemoryRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Run
	for i := len(s.order) - 1; i >= 0; i-- {
		run := s.runs[s.order[i]]
		if filter.Ruleset != "" && run.Ruleset != filter.Ruleset {
			continue
		}
		if filter.FailedOnly && !run.Failed {
			continue
		}
		out = append(out, run)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *InMemoryRunStore) Close() error { return nil }
