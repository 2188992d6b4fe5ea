package contributor

import (
	"context"
	"sync"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/platform/sentinel"
)

// MemoryStore implements store.ContributorStore in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[id.ContributorID]models.Contributor
}

func NewMemory() *MemoryStore {
	return &MemoryStore{byID: make(map[id.ContributorID]models.Contributor)}
}

func (s *MemoryStore) Get(ctx context.Context, contributorID id.ContributorID) (*models.Contributor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[contributorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) Put(ctx context.Context, contributor models.Contributor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[contributor.ID] = contributor
	return nil
}
