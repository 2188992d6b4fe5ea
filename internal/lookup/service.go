// Package lookup is the hot read path. It serves pre-computed profiles
// through the cache and performs zero computation per request; the only
// per-request store read is the caller-specific spam-report check, which is
// deliberately never cached.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"calldex/internal/profile/cache"
	"calldex/internal/profile/models"
	"calldex/internal/profile/store"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
)

// Response is the full caller-ID answer for one number.
type Response struct {
	PhoneNumber         string                  `json:"phoneNumber"`
	Name                string                  `json:"name"`
	Confidence          float64                 `json:"confidence"`
	SourceCount         int                     `json:"sourceCount"`
	IsVerified          bool                    `json:"isVerified"`
	SpamScore           float64                 `json:"spamScore"`
	IsLikelySpam        bool                    `json:"isLikelySpam"`
	SpamCategory        models.SpamCategory     `json:"spamCategory"`
	Category            string                  `json:"category"`
	Tags                []string                `json:"tags"`
	RelationshipHint    models.RelationshipRole `json:"relationshipHint,omitempty"`
	Description         string                  `json:"description,omitempty"`
	HasUserReportedSpam bool                    `json:"hasUserReportedSpam"`
}

// Service answers caller-ID lookups.
type Service struct {
	cache   *cache.MultiTier
	reports store.SpamReportStore
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(profileCache *cache.MultiTier, reports store.SpamReportStore, opts ...Option) (*Service, error) {
	if profileCache == nil || reports == nil {
		return nil, fmt.Errorf("lookup: cache and report store are required")
	}
	s := &Service{cache: profileCache, reports: reports, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lookup returns the profile for a number. callerID is optional; when
// present, the response says whether that caller has an active spam report
// against the number. Returns sentinel.ErrNotFound when no profile exists.
func (s *Service) Lookup(ctx context.Context, rawPhone string, callerID id.ContributorID) (*Response, error) {
	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
	}

	profile, err := s.cache.Get(ctx, number)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fmt.Errorf("%w: no profile for %s", sentinel.ErrNotFound, number)
		}
		return nil, fmt.Errorf("profile read: %w", err)
	}

	resp := &Response{
		PhoneNumber:      string(profile.Phone),
		Name:             profile.Name,
		Confidence:       profile.Confidence,
		SourceCount:      profile.SourceCount,
		IsVerified:       profile.Verified,
		SpamScore:        profile.SpamScore,
		IsLikelySpam:     profile.IsLikelySpam(),
		SpamCategory:     profile.SpamCategory,
		Category:         profile.CallerCategory,
		Tags:             profile.Tags,
		RelationshipHint: profile.RelationshipHint,
		Description:      profile.Description,
	}

	if !callerID.IsNil() {
		reported, err := s.reports.HasActiveReport(ctx, number, callerID)
		if err != nil {
			// The caller-specific bit degrades to false rather than failing
			// the whole lookup.
			s.logger.WarnContext(ctx, "per-caller report check failed",
				"phone", string(number), "error", err)
		} else {
			resp.HasUserReportedSpam = reported
		}
	}

	return resp, nil
}
