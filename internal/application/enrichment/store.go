package enrichment

import (
	"sync"
	"time"

	domain "github.com/codelens-ai/codelens/internal/domain/enrichment"
)

// BatchStore is the in-memory batch registry, an explicit object so tests
// get isolated instances.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[domain.BatchID]*domain.Batch
}

func NewBatchStore() *BatchStore {
	return &BatchStore{batches: make(map[domain.BatchID]*domain.Batch)}
}

func (s *BatchStore) Put(b *domain.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
}

func (s *BatchStore) Get(id domain.BatchID) (*domain.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	return b, ok
}

// All returns the registered batches in arbitrary order.
func (s *BatchStore) All() []*domain.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b)
	}
	return out
}

func (s *BatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}

// EvictEndedBefore removes batches whose end time is older than the cutoff,
// bounding memory growth in a long-lived process. Returns the evicted count.
func (s *BatchStore) EvictEndedBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, b := range s.batches {
		if b.EndedBefore(cutoff) {
			delete(s.batches, id)
			evicted++
		}
	}
	return evicted
}
