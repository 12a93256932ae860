package analysis

import (
	"sync"

	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

// RunStore is the in-memory run registry. It is an explicit object with
// lifecycle tied to the service rather than ambient package state, so tests
// get isolated instances.
type RunStore struct {
	mu   sync.RWMutex
	runs map[domain.RunID]*domain.Run
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[domain.RunID]*domain.Run)}
}

func (s *RunStore) Put(r *domain.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
}

func (s *RunStore) Get(id domain.RunID) (*domain.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok
}

func (s *RunStore) Delete(id domain.RunID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
}

func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
