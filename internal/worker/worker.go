// Package worker consumes domain events and recomputes number profiles.
// Delivery is at-least-once and may be out of order; every handler recomputes
// from durable evidence and never reads profile values out of an event
// payload, which is what makes duplicates and reordering harmless.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"calldex/internal/advisory"
	"calldex/internal/events"
	"calldex/internal/profile/models"
	"calldex/internal/profile/store"
	"calldex/internal/resolve"
	"calldex/internal/spam"
	"calldex/pkg/phone"
)

// DefaultConcurrency bounds parallel rebuilds within one bulk chunk.
const DefaultConcurrency = 4

// Requeuer schedules an envelope for a later attempt.
type Requeuer interface {
	Requeue(ctx context.Context, env events.Envelope) error
}

// Invalidator drops recomputed numbers from the cache tiers.
type Invalidator interface {
	InvalidateMany(ctx context.Context, numbers []phone.Number) error
}

// Worker owns profile recomputation.
type Worker struct {
	identities    store.IdentityStore
	contributions store.ContributionStore
	reports       store.SpamReportStore
	profiles      store.ProfileStore
	resolver      *resolve.Service
	advisor       advisory.Client
	cache         Invalidator
	requeuer      Requeuer
	logger        *slog.Logger
	concurrency   int
	now           func() time.Time
}

// Option configures a Worker.
type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithConcurrency bounds parallel rebuilds inside one bulk chunk.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithClock injects the processing timestamp for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func New(
	identities store.IdentityStore,
	contributions store.ContributionStore,
	reports store.SpamReportStore,
	profiles store.ProfileStore,
	resolver *resolve.Service,
	advisor advisory.Client,
	cache Invalidator,
	requeuer Requeuer,
	opts ...Option,
) (*Worker, error) {
	if identities == nil || contributions == nil || reports == nil || profiles == nil ||
		resolver == nil || advisor == nil || cache == nil || requeuer == nil {
		return nil, fmt.Errorf("worker: all collaborators are required")
	}
	w := &Worker{
		identities:    identities,
		contributions: contributions,
		reports:       reports,
		profiles:      profiles,
		resolver:      resolver,
		advisor:       advisor,
		cache:         cache,
		requeuer:      requeuer,
		logger:        slog.Default(),
		concurrency:   DefaultConcurrency,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Process handles one envelope end to end, including retry bookkeeping. A
// handler failure schedules the next attempt with backoff; an exhausted
// envelope is dead-lettered loudly, never dropped in silence.
func (w *Worker) Process(ctx context.Context, env events.Envelope) {
	err := w.handle(ctx, env.Event)
	if err == nil {
		eventsProcessed.WithLabelValues(string(env.Type)).Inc()
		return
	}
	eventsFailed.WithLabelValues(string(env.Type)).Inc()

	// Bulk chunks retry only the numbers that actually failed.
	var bulk *bulkError
	if errors.As(err, &bulk) {
		env.Event = shrinkBulk(env.Event, bulk.failed)
	}

	next, ok := env.NextAttempt(w.now())
	if !ok {
		w.deadLetter(ctx, env, err)
		return
	}
	if rqErr := w.requeuer.Requeue(ctx, next); rqErr != nil {
		w.deadLetter(ctx, env, errors.Join(err, rqErr))
		return
	}
	eventsRetried.WithLabelValues(string(env.Type)).Inc()
	w.logger.WarnContext(ctx, "event handling failed, retry scheduled",
		"event_id", env.ID.String(),
		"type", string(env.Type),
		"attempt", next.Attempts,
		"not_before", next.NotBefore,
		"error", err)
}

// handle dispatches on the sealed event union. Adding an event type without a
// case here is a compile-time error.
func (w *Worker) handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ContactSync:
		return w.rebuildMany(ctx, e.Phones)
	case events.BatchRebuild:
		return w.rebuildMany(ctx, e.Phones)
	case events.SpamReport:
		return w.RebuildProfile(ctx, e.Phone)
	case events.NameContribution:
		return w.RebuildProfile(ctx, e.Phone)
	case events.ProfileEdit:
		// Verified-name edits skip clustering inside the resolver and land
		// as an authoritative profile immediately.
		return w.RebuildProfile(ctx, e.Phone)
	default:
		return fmt.Errorf("unhandled event type %q", event.EventType())
	}
}

// RebuildProfile recomputes one number's profile from durable evidence and
// swaps it in: resolve, score, upsert, then invalidate the cache. The cache
// is touched only after the durable write so readers can never resurrect a
// profile older than the store row.
func (w *Worker) RebuildProfile(ctx context.Context, number phone.Number) error {
	start := time.Now()
	defer func() {
		rebuildDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	identity, err := w.identities.GetOrCreate(ctx, number)
	if err != nil {
		return fmt.Errorf("load identity %s: %w", number, err)
	}

	var (
		resolution resolve.Resolution
		reports    []models.SpamReport
		spamRatio  float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resolution, err = w.resolver.Resolve(gctx, identity)
		return err
	})
	g.Go(func() error {
		var err error
		reports, err = w.reports.ListActiveByPhone(gctx, number)
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
		spamRatio, err = w.spamNameRatio(gctx, identity)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("rebuild %s: %w", number, err)
	}

	signals := buildSignals(reports, spamRatio, w.now())
	signals.Advisory = w.advisor.Assess(ctx, number, advisory.SignalSummary{
		UniqueReporters: signals.UniqueReporters,
		ReportsLast7d:   signals.ReportsLast7d,
		SpamNameRatio:   signals.SpamNameRatio,
	})
	verdict := spam.Score(signals)

	profile := composeProfile(number, identity, resolution, verdict)
	profile.UpdatedAt = w.now()
	version, err := w.profiles.Upsert(ctx, profile)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", number, err)
	}

	if err := w.cache.InvalidateMany(ctx, []phone.Number{number}); err != nil {
		// The durable row already moved forward; stale cache entries expire
		// on TTL, so this degrades rather than fails the rebuild.
		w.logger.WarnContext(ctx, "cache invalidation failed",
			"phone", string(number), "error", err)
	}

	w.logger.DebugContext(ctx, "profile rebuilt",
		"phone", string(number),
		"name", profile.Name,
		"confidence", profile.Confidence,
		"spam_score", profile.SpamScore,
		"version", version)
	return nil
}

// rebuildMany processes one bulk chunk with bounded parallelism. A failed
// number never blocks its siblings; failures are collected for the retry path.
func (w *Worker) rebuildMany(ctx context.Context, numbers []phone.Number) error {
	type failure struct {
		number phone.Number
		err    error
	}
	failures := make(chan failure, len(numbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, number := range numbers {
		g.Go(func() error {
			if err := w.RebuildProfile(gctx, number); err != nil {
				failures <- failure{number: number, err: err}
			}
			// Failures are isolated, so the group itself never aborts.
			return nil
		})
	}
	_ = g.Wait() // goroutines always return nil
	close(failures)

	var (
		failed []phone.Number
		errs   []error
	)
	for f := range failures {
		failed = append(failed, f.number)
		errs = append(errs, fmt.Errorf("%s: %w", f.number, f.err))
	}
	if len(failed) == 0 {
		return nil
	}
	return &bulkError{failed: failed, err: errors.Join(errs...)}
}

// spamNameRatio is the share of distinct contributors who saved the number
// under a spam-indicative name.
func (w *Worker) spamNameRatio(ctx context.Context, identity *models.NumberIdentity) (float64, error) {
	contributions, err := w.contributions.ListByIdentity(ctx, identity.ID)
	if err != nil {
		return 0, fmt.Errorf("list contributions: %w", err)
	}
	if len(contributions) == 0 {
		return 0, nil
	}

	total := map[string]struct{}{}
	flagged := map[string]struct{}{}
	for _, c := range contributions {
		// Anonymous contributions count individually.
		key := c.ContributorID.String()
		if c.ContributorID.IsNil() {
			key = c.ID.String()
		}
		total[key] = struct{}{}
		if spam.IsSpamIndicativeName(c.CleanedName) {
			flagged[key] = struct{}{}
		}
	}
	return float64(len(flagged)) / float64(len(total)), nil
}

func buildSignals(reports []models.SpamReport, spamRatio float64, now time.Time) spam.Signals {
	signals := spam.Signals{
		SpamNameRatio:   spamRatio,
		NewestReportAge: -1,
	}
	if len(reports) == 0 {
		return signals
	}

	reporters := map[string]struct{}{}
	var newest time.Time
	for _, r := range reports {
		reporters[r.ReporterID.String()] = struct{}{}
		if r.CreatedAt.After(newest) {
			newest = r.CreatedAt
		}
		if now.Sub(r.CreatedAt) <= 7*24*time.Hour {
			signals.ReportsLast7d++
		}
	}
	signals.UniqueReporters = len(reporters)
	signals.HasReports = true
	signals.NewestReportAge = now.Sub(newest)
	return signals
}

func composeProfile(number phone.Number, identity *models.NumberIdentity, resolution resolve.Resolution, verdict spam.Result) models.NumberProfile {
	profile := models.NumberProfile{
		Phone:            number,
		Name:             resolution.Name,
		Confidence:       resolution.Confidence,
		SpamScore:        verdict.Score,
		SpamCategory:     verdict.Category,
		CallerCategory:   callerCategory(identity, verdict),
		Tags:             identity.Tags,
		RelationshipHint: identity.Role,
		SourceCount:      resolution.SourceCount,
		Verified:         resolution.IsVerified,
	}
	if verdict.IsSpam {
		profile.Description = verdict.Reasoning
	}
	return profile
}

// callerCategory is the coarse serving label: the spam category wins for
// flagged numbers, otherwise the relationship role, otherwise "unknown".
func callerCategory(identity *models.NumberIdentity, verdict spam.Result) string {
	if verdict.IsSpam {
		return string(verdict.Category)
	}
	if identity.Role != "" {
		return string(identity.Role)
	}
	return "unknown"
}

// bulkError carries the numbers that failed inside a bulk chunk so only they
// are retried.
type bulkError struct {
	failed []phone.Number
	err    error
}

func (e *bulkError) Error() string {
	return fmt.Sprintf("%d numbers failed: %v", len(e.failed), e.err)
}

func (e *bulkError) Unwrap() error { return e.err }

func shrinkBulk(event events.Event, failed []phone.Number) events.Event {
	switch e := event.(type) {
	case events.ContactSync:
		e.Phones = failed
		return e
	case events.BatchRebuild:
		e.Phones = failed
		return e
	default:
		return event
	}
}

func (w *Worker) deadLetter(ctx context.Context, env events.Envelope, err error) {
	eventsDeadLettered.WithLabelValues(string(env.Type)).Inc()
	raw, marshalErr := env.Marshal()
	if marshalErr != nil {
		raw = []byte(fmt.Sprintf("unmarshalable envelope %s", env.ID.String()))
	}
	w.logger.ErrorContext(ctx, "event dead-lettered after exhausting retries",
		"event_id", env.ID.String(),
		"type", string(env.Type),
		"attempts", env.Attempts,
		"envelope", string(raw),
		"error", err)
}
