// Package domain holds the typed identifiers shared across services. Typed
// IDs keep a contributor ID from ever being passed where an identity ID is
// expected; the compiler does the checking.
package domain

import (
	"fmt"

	"github.com/google/uuid"

	"calldex/pkg/platform/sentinel"
)

type (
	// IdentityID identifies one NumberIdentity row.
	IdentityID uuid.UUID
	// ContributorID identifies the user behind a piece of evidence. Nil for
	// unauthenticated bulk sources.
	ContributorID uuid.UUID
	// ContributionID identifies one name contribution.
	ContributionID uuid.UUID
	// ReportID identifies one spam report.
	ReportID uuid.UUID
	// EventID identifies one domain event envelope on the queue.
	EventID uuid.UUID
)

func NewIdentityID() IdentityID         { return IdentityID(uuid.New()) }
func NewContributorID() ContributorID   { return ContributorID(uuid.New()) }
func NewContributionID() ContributionID { return ContributionID(uuid.New()) }
func NewReportID() ReportID             { return ReportID(uuid.New()) }
func NewEventID() EventID               { return EventID(uuid.New()) }

func (i IdentityID) String() string     { return uuid.UUID(i).String() }
func (i ContributorID) String() string  { return uuid.UUID(i).String() }
func (i ContributionID) String() string { return uuid.UUID(i).String() }
func (i ReportID) String() string       { return uuid.UUID(i).String() }
func (i EventID) String() string        { return uuid.UUID(i).String() }

func (i IdentityID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i ContributorID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i EventID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }

// ParseContributorID parses an ID arriving at a trust boundary. Empty and nil
// UUIDs are rejected; use the zero value for anonymous sources instead.
func ParseContributorID(s string) (ContributorID, error) {
	u, err := parse(s)
	if err != nil {
		return ContributorID{}, err
	}
	return ContributorID(u), nil
}

// ParseIdentityID parses an identity ID arriving at a trust boundary.
func ParseIdentityID(s string) (IdentityID, error) {
	u, err := parse(s)
	if err != nil {
		return IdentityID{}, err
	}
	return IdentityID(u), nil
}

// ParseEventID parses an event ID from a queue record.
func ParseEventID(s string) (EventID, error) {
	u, err := parse(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("empty id: %w", sentinel.ErrInvalidInput)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed id %q: %w", s, sentinel.ErrInvalidInput)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("nil id: %w", sentinel.ErrInvalidInput)
	}
	return u, nil
}
