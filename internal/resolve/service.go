// Package resolve implements the identity-resolution engine: it clusters
// crowdsourced name variants for one number and picks the most likely real
// name with a confidence score. It is the only writer of resolved names and
// of derived name clusters.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"calldex/internal/profile/models"
	"calldex/internal/profile/store"
)

// Resolution is the engine's verdict for one number.
type Resolution struct {
	Name        string
	Confidence  float64 // 0..100
	SourceCount int
	IsVerified  bool
}

// Service runs resolution passes against the durable evidence stores.
type Service struct {
	identities    store.IdentityStore
	contributions store.ContributionStore
	clusters      store.ClusterStore
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock injects the pass timestamp for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(identities store.IdentityStore, contributions store.ContributionStore, clusters store.ClusterStore, opts ...Option) (*Service, error) {
	if identities == nil || contributions == nil || clusters == nil {
		return nil, fmt.Errorf("resolve: all stores are required")
	}
	s := &Service{
		identities:    identities,
		contributions: contributions,
		clusters:      clusters,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve recomputes the identity's name from current durable evidence and
// persists both the resolution fields and the derived clusters. Recomputing
// from the store rather than from any event payload is what makes duplicate
// and out-of-order deliveries harmless.
func (s *Service) Resolve(ctx context.Context, identity *models.NumberIdentity) (Resolution, error) {
	contributions, err := s.contributions.ListByIdentity(ctx, identity.ID)
	if err != nil {
		return Resolution{}, fmt.Errorf("list contributions: %w", err)
	}

	// A verified name is authoritative; evidence cannot outvote the owner.
	if identity.VerifiedName != "" {
		return Resolution{
			Name:        identity.VerifiedName,
			Confidence:  100,
			SourceCount: len(contributions),
			IsVerified:  true,
		}, nil
	}

	now := s.now()
	clusters := buildClusters(contributions)

	persisted := make([]models.NameCluster, 0, len(clusters))
	for _, c := range clusters {
		m := c.toModel()
		m.IdentityID = identity.ID
		persisted = append(persisted, m)
	}
	if err := s.clusters.ReplaceForIdentity(ctx, identity.ID, persisted); err != nil {
		return Resolution{}, fmt.Errorf("replace clusters: %w", err)
	}

	resolution := s.pickWinner(clusters, len(contributions), now)

	if err := s.identities.UpdateResolution(ctx, identity.ID,
		resolution.Name, resolution.Confidence, len(contributions), now); err != nil {
		return Resolution{}, fmt.Errorf("update resolution: %w", err)
	}

	s.logger.DebugContext(ctx, "resolved identity",
		"phone", identity.Phone,
		"name", resolution.Name,
		"confidence", resolution.Confidence,
		"clusters", len(clusters),
	)
	return resolution, nil
}

func (s *Service) pickWinner(clusters []*cluster, totalContributions int, now time.Time) Resolution {
	if len(clusters) == 0 {
		return Resolution{}
	}

	var totalWeight float64
	usable := 0
	for _, c := range clusters {
		totalWeight += c.totalWeight
		usable += len(c.contributions)
	}

	var winner *cluster
	winnerScore := 0.0
	scoreSum := 0.0
	for _, c := range clusters {
		score := scoreCluster(c, usable, totalWeight, now)
		scoreSum += score
		if winner == nil || score > winnerScore {
			winner = c
			winnerScore = score
		}
	}

	confidence := 0.0
	if scoreSum > 0 {
		confidence = winnerScore / scoreSum * 100
	}

	return Resolution{
		Name:        bestVariant(winner.variants),
		Confidence:  confidence,
		SourceCount: totalContributions,
	}
}
