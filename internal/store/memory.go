package store

import (
	"context"
	"sync"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// MemoryStore is a concurrency-safe in-memory ResultStore that keeps the
// most recent maxHistory runs.
type MemoryStore struct {
	mu         sync.RWMutex
	runs       map[string]models.AnalysisRun
	order      []string // run ids, oldest first
	maxHistory int
}

// NewMemoryStore creates a MemoryStore. If maxHistory is <= 0 it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		runs:       make(map[string]models.AnalysisRun),
		maxHistory: maxHistory,
	}
}

func (s *MemoryStore) SaveRun(_ context.Context, run models.AnalysisRun) error {
	run.Results = run.Results.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run

	if s.maxHistory > 0 && len(s.order) > s.maxHistory {
		over := len(s.order) - s.maxHistory
		for _, id := range s.order[:over] {
			delete(s.runs, id)
		}
		s.order = append([]string(nil), s.order[over:]...)
	}
	return nil
}

func (s *MemoryStore) LatestRun(_ context.Context) (models.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return models.AnalysisRun{}, ErrNotFound
	}
	run := s.runs[s.order[len(s.order)-1]]
	run.Results = run.Results.Clone()
	return run, nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (models.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return models.AnalysisRun{}, ErrNotFound
	}
	run.Results = run.Results.Clone()
	return run, nil
}
