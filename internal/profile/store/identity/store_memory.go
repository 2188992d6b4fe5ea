package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
)

// MemoryStore implements store.IdentityStore in process memory. Used by unit
// tests and local runs; production uses PostgresStore.
type MemoryStore struct {
	mu      sync.RWMutex
	byPhone map[phone.Number]*models.NumberIdentity
	byID    map[id.IdentityID]*models.NumberIdentity
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byPhone: make(map[phone.Number]*models.NumberIdentity),
		byID:    make(map[id.IdentityID]*models.NumberIdentity),
	}
}

func (s *MemoryStore) GetByPhone(ctx context.Context, number phone.Number) (*models.NumberIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ident, ok := s.byPhone[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(ident), nil
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, number phone.Number) (*models.NumberIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ident, ok := s.byPhone[number]; ok {
		return clone(ident), nil
	}
	ident := &models.NumberIdentity{
		ID:                id.NewIdentityID(),
		Phone:             number,
		VerificationLevel: models.VerificationNone,
		CreatedAt:         time.Now(),
	}
	s.byPhone[number] = ident
	s.byID[ident.ID] = ident
	return clone(ident), nil
}

func (s *MemoryStore) UpdateResolution(ctx context.Context, identityID id.IdentityID, resolvedName string, confidence float64, contributionCount int, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byID[identityID]
	if !ok {
		return sentinel.ErrNotFound
	}
	ident.ResolvedName = resolvedName
	ident.Confidence = confidence
	ident.ContributionCount = contributionCount
	ident.LastResolvedAt = resolvedAt
	return nil
}

func (s *MemoryStore) SetVerifiedName(ctx context.Context, number phone.Number, name string, level models.VerificationLevel) (*models.NumberIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byPhone[number]
	if !ok {
		ident = &models.NumberIdentity{
			ID:        id.NewIdentityID(),
			Phone:     number,
			CreatedAt: time.Now(),
		}
		s.byPhone[number] = ident
		s.byID[ident.ID] = ident
	}
	ident.VerifiedName = name
	ident.VerificationLevel = level
	ident.Confidence = 100
	return clone(ident), nil
}

func (s *MemoryStore) AddTags(ctx context.Context, identityID id.IdentityID, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byID[identityID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing := make(map[string]struct{}, len(ident.Tags))
	for _, t := range ident.Tags {
		existing[t] = struct{}{}
	}
	for _, t := range tags {
		if _, ok := existing[t]; !ok {
			existing[t] = struct{}{}
			ident.Tags = append(ident.Tags, t)
		}
	}
	return nil
}

func (s *MemoryStore) SetRoleIfUnset(ctx context.Context, identityID id.IdentityID, role models.RelationshipRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byID[identityID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if ident.Role == "" {
		ident.Role = role
	}
	return nil
}

func (s *MemoryStore) ListPhones(ctx context.Context, after phone.Number, limit int) ([]phone.Number, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers := make([]phone.Number, 0, len(s.byPhone))
	for n := range s.byPhone {
		if n > after {
			numbers = append(numbers, n)
		}
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	if limit > 0 && len(numbers) > limit {
		numbers = numbers[:limit]
	}
	return numbers, nil
}

func clone(ident *models.NumberIdentity) *models.NumberIdentity {
	out := *ident
	out.Tags = append([]string(nil), ident.Tags...)
	return &out
}
