package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ishanwen-byte/plantevolve-go/internal/types"
)

// MemoryStore keeps results in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]types.EvolutionResult
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]types.EvolutionResult)}
}

func (s *MemoryStore) Save(_ context.Context, result types.EvolutionResult) (string, error) {
	r := prepare(result)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.RunID] = r
	return r.RunID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (types.EvolutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return types.EvolutionResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneResult(r), nil
}

func (s *MemoryStore) List(_ context.Context) ([]RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		infos = append(infos, infoOf(r))
	}
	sortInfos(infos)
	return infos, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.runs, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
