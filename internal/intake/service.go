// Package intake is the evidence write path. Every mutating operation
// persists synchronously, then enqueues exactly one domain event (one per
// chunk for bulk sync) before returning. Intake never computes profiles;
// recomputation belongs to the worker.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"calldex/internal/events"
	"calldex/internal/profile/models"
	"calldex/internal/profile/store"
	"calldex/internal/resolve"
	"calldex/internal/tags"
	id "calldex/pkg/domain"
	"calldex/pkg/nameclean"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
	platformstrings "calldex/pkg/platform/strings"
)

// Service accepts crowdsourced evidence about phone numbers.
type Service struct {
	identities    store.IdentityStore
	contributors  store.ContributorStore
	contributions store.ContributionStore
	reports       store.SpamReportStore
	bus           events.Bus
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock injects the intake timestamp for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(identities store.IdentityStore, contributors store.ContributorStore, contributions store.ContributionStore, reports store.SpamReportStore, bus events.Bus, opts ...Option) (*Service, error) {
	if identities == nil || contributors == nil || contributions == nil || reports == nil || bus == nil {
		return nil, fmt.Errorf("intake: all stores and the bus are required")
	}
	s := &Service{
		identities:    identities,
		contributors:  contributors,
		contributions: contributions,
		reports:       reports,
		bus:           bus,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NameSuggestion is one manually suggested name for a number.
type NameSuggestion struct {
	Phone             string
	Name              string
	ContributorID     id.ContributorID
	Source            models.ContributionSource
	DeviceFingerprint string
}

// SubmitNameContribution persists one piece of name evidence and announces
// it. Duplicate evidence (same identity, contributor, cleaned name) persists
// nothing and emits nothing.
func (s *Service) SubmitNameContribution(ctx context.Context, sug NameSuggestion) error {
	number, err := phone.Normalize(sug.Phone)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
	}
	cleaned, ok := nameclean.CleanAndValidate(sug.Name)
	if !ok {
		return fmt.Errorf("%w: name %q is not usable evidence", sentinel.ErrInvalidInput, sug.Name)
	}
	source := sug.Source
	if source == "" {
		source = models.SourceSuggestion
	}
	if !source.IsValid() {
		return fmt.Errorf("%w: unknown source %q", sentinel.ErrInvalidInput, source)
	}

	identity, err := s.identities.GetOrCreate(ctx, number)
	if err != nil {
		return fmt.Errorf("get or create identity: %w", err)
	}

	now := s.now()
	added, err := s.contributions.Add(ctx, models.NameContribution{
		ID:                id.NewContributionID(),
		IdentityID:        identity.ID,
		ContributorID:     sug.ContributorID,
		RawName:           sug.Name,
		CleanedName:       cleaned,
		Source:            source,
		TrustWeight:       s.trustWeight(ctx, sug.ContributorID, now),
		DeviceFingerprint: sug.DeviceFingerprint,
		CreatedAt:         now,
	})
	if err != nil {
		return fmt.Errorf("add contribution: %w", err)
	}
	if !added {
		return nil
	}

	s.emit(ctx, events.NameContribution{Phone: number, Actor: sug.ContributorID, At: now})
	return nil
}

// ContactEntry is one saved contact from a synced address book.
type ContactEntry struct {
	Phone string
	Name  string
}

// SyncResult summarizes one contact-book ingestion.
type SyncResult struct {
	Accepted int // contributions persisted
	Skipped  int // invalid numbers, junk names, duplicates
}

// SyncContacts ingests a contact book: persists one contribution per usable
// entry, extracts relationship tags as a side effect, then announces the
// accepted numbers in chunks. Unusable entries are skipped, never fatal.
func (s *Service) SyncContacts(ctx context.Context, entries []ContactEntry, actor id.ContributorID, deviceFingerprint string) (SyncResult, error) {
	now := s.now()
	weight := s.trustWeight(ctx, actor, now)

	var (
		res      SyncResult
		accepted []phone.Number
	)
	for _, entry := range entries {
		number, err := phone.Normalize(entry.Phone)
		if err != nil {
			res.Skipped++
			continue
		}
		cleaned, ok := nameclean.CleanAndValidate(entry.Name)
		if !ok {
			res.Skipped++
			continue
		}

		identity, err := s.identities.GetOrCreate(ctx, number)
		if err != nil {
			return res, fmt.Errorf("get or create identity for %s: %w", number, err)
		}

		added, err := s.contributions.Add(ctx, models.NameContribution{
			ID:                id.NewContributionID(),
			IdentityID:        identity.ID,
			ContributorID:     actor,
			RawName:           entry.Name,
			CleanedName:       cleaned,
			Source:            models.SourceContactSync,
			TrustWeight:       weight,
			DeviceFingerprint: deviceFingerprint,
			CreatedAt:         now,
		})
		if err != nil {
			return res, fmt.Errorf("add contribution for %s: %w", number, err)
		}
		if !added {
			res.Skipped++
			continue
		}

		s.applyTags(ctx, identity, entry.Name)
		res.Accepted++
		accepted = append(accepted, number)
	}

	if len(accepted) > 0 {
		s.emit(ctx, events.ContactSync{Phones: accepted, Actor: actor, At: now})
	}
	return res, nil
}

// SubmitSpamReport files one spam report. A contributor re-reporting a number
// they already have an active report for is a no-op.
func (s *Service) SubmitSpamReport(ctx context.Context, rawPhone string, reporterID id.ContributorID, reason string) error {
	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
	}

	already, err := s.reports.HasActiveReport(ctx, number, reporterID)
	if err != nil {
		return fmt.Errorf("check existing report: %w", err)
	}
	if already {
		return nil
	}

	// Ensure the identity exists so a report on an unseen number still
	// produces a profile.
	if _, err := s.identities.GetOrCreate(ctx, number); err != nil {
		return fmt.Errorf("get or create identity: %w", err)
	}

	now := s.now()
	if err := s.reports.Add(ctx, models.SpamReport{
		ID:         id.NewReportID(),
		Phone:      number,
		ReporterID: reporterID,
		Reason:     reason,
		CreatedAt:  now,
	}); err != nil {
		return fmt.Errorf("add report: %w", err)
	}

	s.emit(ctx, events.SpamReport{Phone: number, Actor: reporterID, At: now})
	return nil
}

// RemoveSpamReport retracts the reporter's active report. The row is marked,
// never deleted. Removing a report that never existed is not an error.
func (s *Service) RemoveSpamReport(ctx context.Context, rawPhone string, reporterID id.ContributorID) error {
	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
	}

	now := s.now()
	if err := s.reports.Remove(ctx, number, reporterID, now); err != nil {
		return fmt.Errorf("remove report: %w", err)
	}

	s.emit(ctx, events.SpamReport{Phone: number, Actor: reporterID, At: now})
	return nil
}

// SetVerifiedName records the number owner's self-declared name. The verified
// name outranks anything the resolution engine computes, and the follow-up
// event is user-synchronous on the queue.
func (s *Service) SetVerifiedName(ctx context.Context, rawPhone, name string, level models.VerificationLevel, actor id.ContributorID) error {
	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
	}
	cleaned, ok := nameclean.CleanAndValidate(name)
	if !ok {
		return fmt.Errorf("%w: name %q is not usable", sentinel.ErrInvalidInput, name)
	}
	if !level.IsValid() || level == models.VerificationNone {
		return fmt.Errorf("%w: verification level %q", sentinel.ErrInvalidInput, level)
	}

	if _, err := s.identities.SetVerifiedName(ctx, number, cleaned, level); err != nil {
		return fmt.Errorf("set verified name: %w", err)
	}

	s.emit(ctx, events.ProfileEdit{Phone: number, Actor: actor, At: s.now()})
	return nil
}

// rebuildAllPageSize bounds one ListPhones page during a full-scan rebuild.
const rebuildAllPageSize = 1000

// RebuildNumbers schedules an administrative recomputation of an explicit
// number list. Invalid numbers are rejected up front rather than skipped, so
// an admin typo is loud.
func (s *Service) RebuildNumbers(ctx context.Context, rawPhones []string) error {
	if len(rawPhones) == 0 {
		return fmt.Errorf("%w: empty number list", sentinel.ErrInvalidInput)
	}
	rawPhones = platformstrings.DedupeAndTrim(rawPhones)
	numbers := make([]phone.Number, 0, len(rawPhones))
	for _, raw := range rawPhones {
		number, err := phone.Normalize(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
		}
		numbers = append(numbers, number)
	}
	if err := s.bus.Emit(ctx, events.BatchRebuild{Phones: numbers, At: s.now()}); err != nil {
		return fmt.Errorf("enqueue rebuild: %w", err)
	}
	return nil
}

// RebuildAll walks every known number and schedules its recomputation.
// Returns the number of identities scheduled. The scan pages through the
// identity store so memory stays bounded regardless of table size.
func (s *Service) RebuildAll(ctx context.Context) (int, error) {
	var (
		cursor    phone.Number
		scheduled int
	)
	for {
		page, err := s.identities.ListPhones(ctx, cursor, rebuildAllPageSize)
		if err != nil {
			return scheduled, fmt.Errorf("list phones after %q: %w", cursor, err)
		}
		if len(page) == 0 {
			return scheduled, nil
		}
		if err := s.bus.Emit(ctx, events.BatchRebuild{Phones: page, At: s.now()}); err != nil {
			return scheduled, fmt.Errorf("enqueue rebuild page: %w", err)
		}
		scheduled += len(page)
		cursor = page[len(page)-1]
	}
}

// trustWeight captures the contributor's trust at contribution time. An
// unknown or anonymous contributor carries the baseline weight.
func (s *Service) trustWeight(ctx context.Context, contributorID id.ContributorID, now time.Time) float64 {
	if contributorID.IsNil() {
		return resolve.TrustWeight(nil, now)
	}
	contributor, err := s.contributors.Get(ctx, contributorID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "contributor lookup failed, using baseline trust",
				"contributor_id", contributorID.String(), "error", err)
		}
		return resolve.TrustWeight(nil, now)
	}
	return resolve.TrustWeight(contributor, now)
}

func (s *Service) applyTags(ctx context.Context, identity *models.NumberIdentity, displayName string) {
	found, role := tags.Extract(displayName)
	if len(found) == 0 {
		return
	}
	if err := s.identities.AddTags(ctx, identity.ID, found); err != nil {
		s.logger.WarnContext(ctx, "tag union failed", "phone", string(identity.Phone), "error", err)
	}
	if role != "" {
		if err := s.identities.SetRoleIfUnset(ctx, identity.ID, role); err != nil {
			s.logger.WarnContext(ctx, "role assignment failed", "phone", string(identity.Phone), "error", err)
		}
	}
}

// emit enqueues the follow-up event. Evidence is already durable at this
// point, so a queue failure is logged and swallowed; the next event or a
// batch rebuild will reconcile the profile.
func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.bus.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "event emit failed",
			"type", string(event.EventType()), "error", err)
	}
}
