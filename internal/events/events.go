// Package events defines the domain events that decouple evidence writes from
// profile recomputation, and the durable bus that carries them. Events carry
// only the affected numbers and the actor; handlers recompute from durable
// evidence, so payloads never carry profile values.
package events

import (
	"time"

	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

// Type tags an event on the wire.
type Type string

const (
	TypeContactSync      Type = "contact-sync"
	TypeSpamReport       Type = "spam-report"
	TypeNameContribution Type = "name-contribution"
	TypeProfileEdit      Type = "profile-edit"
	TypeBatchRebuild     Type = "batch-rebuild"
)

// Event is the closed set of domain events. The marker method seals the
// union: adding a new event type forces every type switch over Event to be
// revisited at compile time.
type Event interface {
	EventType() Type
	// Numbers returns the affected phone numbers.
	Numbers() []phone.Number
	isEvent()
}

// ContactSync announces a chunk of freshly ingested contact-book numbers.
// The bus chunks large syncs so one payload never exceeds ChunkSize numbers.
type ContactSync struct {
	Phones []phone.Number   `json:"phones"`
	Actor  id.ContributorID `json:"actor,omitempty"`
	At     time.Time        `json:"at"`
}

// SpamReport announces a spam report submitted or removed for one number.
type SpamReport struct {
	Phone phone.Number     `json:"phone"`
	Actor id.ContributorID `json:"actor,omitempty"`
	At    time.Time        `json:"at"`
}

// NameContribution announces new name evidence for one number.
type NameContribution struct {
	Phone phone.Number     `json:"phone"`
	Actor id.ContributorID `json:"actor,omitempty"`
	At    time.Time        `json:"at"`
}

// ProfileEdit announces a verified-name edit. User-synchronous and therefore
// carried at elevated priority.
type ProfileEdit struct {
	Phone phone.Number     `json:"phone"`
	Actor id.ContributorID `json:"actor,omitempty"`
	At    time.Time        `json:"at"`
}

// BatchRebuild announces an administrative recomputation of a chunk of
// numbers.
type BatchRebuild struct {
	Phones []phone.Number `json:"phones"`
	At     time.Time      `json:"at"`
}

func (ContactSync) EventType() Type      { return TypeContactSync }
func (SpamReport) EventType() Type       { return TypeSpamReport }
func (NameContribution) EventType() Type { return TypeNameContribution }
func (ProfileEdit) EventType() Type      { return TypeProfileEdit }
func (BatchRebuild) EventType() Type     { return TypeBatchRebuild }

func (e ContactSync) Numbers() []phone.Number      { return e.Phones }
func (e SpamReport) Numbers() []phone.Number       { return []phone.Number{e.Phone} }
func (e NameContribution) Numbers() []phone.Number { return []phone.Number{e.Phone} }
func (e ProfileEdit) Numbers() []phone.Number      { return []phone.Number{e.Phone} }
func (e BatchRebuild) Numbers() []phone.Number     { return e.Phones }

func (ContactSync) isEvent()      {}
func (SpamReport) isEvent()       {}
func (NameContribution) isEvent() {}
func (ProfileEdit) isEvent()      {}
func (BatchRebuild) isEvent()     {}
