package profilerow

import (
	"context"
	"sync"

	"calldex/internal/profile/models"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
)

// MemoryStore implements store.ProfileStore in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byPhone map[phone.Number]models.NumberProfile
}

func NewMemory() *MemoryStore {
	return &MemoryStore{byPhone: make(map[phone.Number]models.NumberProfile)}
}

func (s *MemoryStore) GetByPhone(ctx context.Context, number phone.Number) (*models.NumberProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byPhone[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p.Tags = append([]string(nil), p.Tags...)
	return &p, nil
}

// Upsert stores the recomputed profile with the version counter incremented
// past whatever is currently persisted. Last write wins; the version only
// signals that a write occurred.
func (s *MemoryStore) Upsert(ctx context.Context, profile models.NumberProfile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.Version = 1
	if existing, ok := s.byPhone[profile.Phone]; ok {
		profile.Version = existing.Version + 1
	}
	profile.Tags = append([]string(nil), profile.Tags...)
	s.byPhone[profile.Phone] = profile
	return profile.Version, nil
}
