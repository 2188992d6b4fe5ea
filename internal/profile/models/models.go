// Package models defines the evidence and derived records of the profile
// pipeline. Everything upstream of NumberProfile is evidence; NumberProfile is
// the single materialized artifact the read path consumes.
package models

import (
	"time"

	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

// VerificationLevel describes how strongly a contributor or identity has been
// verified.
type VerificationLevel string

const (
	VerificationNone     VerificationLevel = "none"
	VerificationPhone    VerificationLevel = "phone"
	VerificationDocument VerificationLevel = "document"
)

func (v VerificationLevel) IsValid() bool {
	switch v {
	case VerificationNone, VerificationPhone, VerificationDocument:
		return true
	}
	return false
}

// ContributionSource describes how a name contribution arrived.
type ContributionSource string

const (
	// SourceContactSync: bulk contact-book upload, usually unauthenticated.
	SourceContactSync ContributionSource = "contact_sync"
	// SourceSuggestion: a user manually suggested a name for a number.
	SourceSuggestion ContributionSource = "suggestion"
	// SourceSelfDeclared: the number's owner declared their own name.
	SourceSelfDeclared ContributionSource = "self_declared"
)

func (s ContributionSource) IsValid() bool {
	switch s {
	case SourceContactSync, SourceSuggestion, SourceSelfDeclared:
		return true
	}
	return false
}

// SpamCategory is the coarse classification served to callers.
type SpamCategory string

const (
	CategoryLegitimate   SpamCategory = "legitimate"
	CategorySuspected    SpamCategory = "suspected_spam"
	CategoryTelemarketer SpamCategory = "telemarketer"
	CategoryScam         SpamCategory = "scam"
)

// RelationshipRole is the probable relationship of a number to the people who
// saved it (family, work, ...). First assignment wins; later contributors
// cannot overwrite it.
type RelationshipRole string

const (
	RoleFamily    RelationshipRole = "family"
	RoleWork      RelationshipRole = "work"
	RoleService   RelationshipRole = "service"
	RoleEducation RelationshipRole = "education"
	RoleSocial    RelationshipRole = "social"
)

// NumberIdentity is the accumulated record for one canonical phone number.
// Created on first evidence of any kind, mutated only by the resolution
// engine and the verified-name path, never deleted.
type NumberIdentity struct {
	ID                id.IdentityID
	Phone             phone.Number
	ResolvedName      string
	VerifiedName      string // empty unless the owner verified a name; always outranks ResolvedName
	VerificationLevel VerificationLevel
	Confidence        float64 // 0..100
	ContributionCount int
	Tags              []string
	Role              RelationshipRole
	LastResolvedAt    time.Time
	CreatedAt         time.Time
}

// Contributor is the user behind authenticated evidence. Its verification
// state feeds the trust weight captured on each contribution.
type Contributor struct {
	ID               id.ContributorID
	PhoneVerified    bool
	DocumentVerified bool
	TrustScore       float64 // multiplicative, 1.0 for a normal account
	Suspicious       bool
	CreatedAt        time.Time
}

// NameContribution is one piece of crowdsourced name evidence. Immutable once
// written; deduplicated at write time on (identity, contributor, cleaned name).
type NameContribution struct {
	ID                id.ContributionID
	IdentityID        id.IdentityID
	ContributorID     id.ContributorID // nil for unauthenticated bulk sources
	RawName           string
	CleanedName       string
	Source            ContributionSource
	TrustWeight       float64 // captured at contribution time, never recomputed
	DeviceFingerprint string
	CreatedAt         time.Time
}

// NameCluster is derived output of one resolution pass: a representative name
// and the variants folded into it. Fully recomputed (delete-all-then-insert)
// on every pass; never independently mutated.
type NameCluster struct {
	IdentityID      id.IdentityID
	Representative  string
	Variants        []string
	TotalWeight     float64
	OccurrenceCount int
}

// SpamReport is one user flagging one number. Removal sets RemovedAt rather
// than deleting the row, so report history is preserved.
type SpamReport struct {
	ID         id.ReportID
	Phone      phone.Number
	ReporterID id.ContributorID
	Reason     string
	CreatedAt  time.Time
	RemovedAt  *time.Time
}

// Active reports whether the report still counts toward spam scoring.
func (r SpamReport) Active() bool { return r.RemovedAt == nil }

// NumberProfile is the single row the read path ever consumes. Only the
// profile worker writes it; Version increments on every write so downstream
// consumers can detect that a recompute happened.
type NumberProfile struct {
	Phone            phone.Number
	Name             string
	Description      string
	Confidence       float64 // 0..100
	SpamScore        float64 // 0..100
	SpamCategory     SpamCategory
	CallerCategory   string
	Tags             []string
	RelationshipHint RelationshipRole
	SourceCount      int
	Verified         bool
	Version          int64
	UpdatedAt        time.Time
}

// IsLikelySpam applies the serving threshold.
func (p NumberProfile) IsLikelySpam() bool { return p.SpamScore > 50 }
