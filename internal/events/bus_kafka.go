package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaBus publishes envelopes to the events topic. Intake-side dispatch is
// an explicit bounded outbound queue with its own retry policy rather than a
// detached goroutine per emit, so backpressure and failures stay observable.
//
// Priority handling: Kafka has no per-message priority, so the user-
// synchronous profile-edit event is produced synchronously (the ack is
// awaited inside Emit) while everything else goes through the outbound queue
// after a short settle delay that guarantees the originating write is
// durable first.
type KafkaBus struct {
	client      *kgo.Client
	topic       string
	settleDelay time.Duration
	outbox      chan Envelope
	logger      *slog.Logger
}

// KafkaBusOption configures a KafkaBus.
type KafkaBusOption func(*KafkaBus)

func WithSettleDelay(d time.Duration) KafkaBusOption {
	return func(b *KafkaBus) { b.settleDelay = d }
}

func WithOutboxSize(n int) KafkaBusOption {
	return func(b *KafkaBus) { b.outbox = make(chan Envelope, n) }
}

func WithBusLogger(logger *slog.Logger) KafkaBusOption {
	return func(b *KafkaBus) { b.logger = logger }
}

func NewKafkaBus(client *kgo.Client, topic string, opts ...KafkaBusOption) *KafkaBus {
	b := &KafkaBus{
		client:      client,
		topic:       topic,
		settleDelay: 500 * time.Millisecond,
		outbox:      make(chan Envelope, 4096),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start drains the outbound queue until ctx is cancelled.
func (b *KafkaBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.outbox:
			b.dispatch(ctx, env)
		}
	}
}

// Emit expands the event and enqueues every envelope before returning.
// A full outbound queue is surfaced to the caller as a soft failure; the
// synchronous evidence write has already succeeded at that point.
func (b *KafkaBus) Emit(ctx context.Context, event Event) error {
	for _, env := range Expand(event) {
		if env.Type == TypeProfileEdit {
			if err := b.produce(ctx, env); err != nil {
				emitFailures.WithLabelValues(string(env.Type)).Inc()
				return fmt.Errorf("emit %s: %w", env.Type, err)
			}
			emitted.WithLabelValues(string(env.Type)).Inc()
			continue
		}

		select {
		case b.outbox <- env:
			emitted.WithLabelValues(string(env.Type)).Inc()
		default:
			emitFailures.WithLabelValues(string(env.Type)).Inc()
			return fmt.Errorf("emit %s: outbound queue full", env.Type)
		}
	}
	return nil
}

// Requeue re-publishes a retry envelope. Called by the worker after a
// handler failure; the envelope already carries its backoff schedule.
func (b *KafkaBus) Requeue(ctx context.Context, env Envelope) error {
	return b.produce(ctx, env)
}

func (b *KafkaBus) dispatch(ctx context.Context, env Envelope) {
	if b.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.settleDelay):
		}
	}

	var lastErr error
	for attempt := 0; attempt < DefaultMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(BackoffBase << (attempt - 1)):
			}
		}
		if lastErr = b.produce(ctx, env); lastErr == nil {
			return
		}
	}
	b.logger.ErrorContext(ctx, "event publish failed after retries",
		"event_id", env.ID, "type", env.Type, "error", lastErr)
}

func (b *KafkaBus) produce(ctx context.Context, env Envelope) error {
	value, err := env.Marshal()
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: b.topic,
		Key:   recordKey(env),
		Value: value,
	}
	return b.client.ProduceSync(ctx, record).FirstErr()
}

// recordKey partitions single-number events by their number so events for one
// number land on one partition. Bulk chunks use the envelope ID; their
// handlers are order-independent by construction.
func recordKey(env Envelope) []byte {
	numbers := env.Event.Numbers()
	if len(numbers) == 1 {
		return []byte(numbers[0].String())
	}
	return []byte(env.ID.String())
}
