// Package store defines the durable-store boundary of the profile pipeline.
// Stores are interface-driven so business code can run against in-memory
// implementations in tests and Postgres in production without rewiring.
package store

import (
	"context"
	"time"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

// IdentityStore persists NumberIdentity rows, keyed by canonical phone number.
type IdentityStore interface {
	GetByPhone(ctx context.Context, number phone.Number) (*models.NumberIdentity, error)
	// GetOrCreate returns the identity for the number, creating an empty one
	// on first evidence of any kind.
	GetOrCreate(ctx context.Context, number phone.Number) (*models.NumberIdentity, error)
	// UpdateResolution writes the resolution engine's output. It never touches
	// the verified name.
	UpdateResolution(ctx context.Context, identityID id.IdentityID, resolvedName string, confidence float64, contributionCount int, resolvedAt time.Time) error
	// SetVerifiedName records a self-declared, authoritative name.
	SetVerifiedName(ctx context.Context, number phone.Number, name string, level models.VerificationLevel) (*models.NumberIdentity, error)
	// AddTags unions tags into the identity's tag set. Tags are never removed.
	AddTags(ctx context.Context, identityID id.IdentityID, tags []string) error
	// SetRoleIfUnset assigns the probable relationship role only when no role
	// has been established yet.
	SetRoleIfUnset(ctx context.Context, identityID id.IdentityID, role models.RelationshipRole) error
	// ListPhones pages through all known numbers for batch rebuilds. An empty
	// cursor starts from the beginning.
	ListPhones(ctx context.Context, after phone.Number, limit int) ([]phone.Number, error)
}

// ContributorStore persists contributor accounts and their verification state.
type ContributorStore interface {
	Get(ctx context.Context, contributorID id.ContributorID) (*models.Contributor, error)
	Put(ctx context.Context, contributor models.Contributor) error
}

// ContributionStore persists append-only name evidence.
type ContributionStore interface {
	// Add appends a contribution. Returns false when the
	// (identity, contributor, cleaned name) triple already exists.
	Add(ctx context.Context, contribution models.NameContribution) (bool, error)
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]models.NameContribution, error)
}

// ClusterStore persists derived name clusters. Clusters are a cache of the
// clustering step's output, replaced wholesale on every resolution pass.
type ClusterStore interface {
	ReplaceForIdentity(ctx context.Context, identityID id.IdentityID, clusters []models.NameCluster) error
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]models.NameCluster, error)
}

// SpamReportStore persists append-only spam reports. Removal marks the row,
// it never deletes.
type SpamReportStore interface {
	Add(ctx context.Context, report models.SpamReport) error
	// Remove marks the reporter's active report for the number as removed.
	// Removing a report that does not exist is not an error.
	Remove(ctx context.Context, number phone.Number, reporterID id.ContributorID, at time.Time) error
	ListActiveByPhone(ctx context.Context, number phone.Number) ([]models.SpamReport, error)
	// HasActiveReport answers the per-request, deliberately uncached
	// "has this user reported this number" question.
	HasActiveReport(ctx context.Context, number phone.Number, reporterID id.ContributorID) (bool, error)
}

// ProfileStore persists the derived NumberProfile. The profile worker is its
// only writer.
type ProfileStore interface {
	GetByPhone(ctx context.Context, number phone.Number) (*models.NumberProfile, error)
	// Upsert writes the recomputed profile, incrementing the stored version.
	// The returned value is the version actually persisted.
	Upsert(ctx context.Context, profile models.NumberProfile) (int64, error)
}
