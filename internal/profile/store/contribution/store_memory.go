package contribution

import (
	"context"
	"sync"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
)

// MemoryStore implements store.ContributionStore in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	byIdentity map[id.IdentityID][]models.NameContribution
	dedupe     map[dedupeKey]struct{}
}

type dedupeKey struct {
	identity    id.IdentityID
	contributor id.ContributorID
	cleaned     string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byIdentity: make(map[id.IdentityID][]models.NameContribution),
		dedupe:     make(map[dedupeKey]struct{}),
	}
}

func (s *MemoryStore) Add(ctx context.Context, contribution models.NameContribution) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dedupeKey{
		identity:    contribution.IdentityID,
		contributor: contribution.ContributorID,
		cleaned:     contribution.CleanedName,
	}
	if _, exists := s.dedupe[key]; exists {
		return false, nil
	}
	s.dedupe[key] = struct{}{}
	s.byIdentity[contribution.IdentityID] = append(s.byIdentity[contribution.IdentityID], contribution)
	return true, nil
}

func (s *MemoryStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]models.NameContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contributions := s.byIdentity[identityID]
	out := make([]models.NameContribution, len(contributions))
	copy(out, contributions)
	return out, nil
}
