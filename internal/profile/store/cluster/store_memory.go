package cluster

import (
	"context"
	"sync"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
)

// MemoryStore implements store.ClusterStore in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	byIdentity map[id.IdentityID][]models.NameCluster
}

func NewMemory() *MemoryStore {
	return &MemoryStore{byIdentity: make(map[id.IdentityID][]models.NameCluster)}
}

// ReplaceForIdentity swaps out every cluster for the identity. Clusters are a
// cache of the clustering step, not a source of truth, so wholesale
// replacement is the only write path.
func (s *MemoryStore) ReplaceForIdentity(ctx context.Context, identityID id.IdentityID, clusters []models.NameCluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]models.NameCluster, len(clusters))
	copy(copied, clusters)
	s.byIdentity[identityID] = copied
	return nil
}

func (s *MemoryStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]models.NameCluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clusters := s.byIdentity[identityID]
	out := make([]models.NameCluster, len(clusters))
	copy(out, clusters)
	return out, nil
}
