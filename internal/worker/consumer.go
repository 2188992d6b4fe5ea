package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"calldex/internal/events"
)

// Consumer drives a Worker from a Kafka consumer group. Offsets are
// committed only after Process returns, so a crash re-delivers the in-flight
// records; recompute-from-evidence makes the re-delivery harmless.
type Consumer struct {
	client *kgo.Client
	worker *Worker
	logger *slog.Logger
}

func NewConsumer(client *kgo.Client, w *Worker, logger *slog.Logger) (*Consumer, error) {
	if client == nil || w == nil {
		return nil, fmt.Errorf("worker: consumer client and worker are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, worker: w, logger: logger}, nil
}

// Run polls until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic, "partition", partition, "error", err)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			env, err := events.UnmarshalEnvelope(record.Value)
			if err != nil {
				// A malformed record can never succeed; log and move on.
				c.logger.ErrorContext(ctx, "dropping undecodable record",
					"topic", record.Topic, "offset", record.Offset, "error", err)
				return
			}
			waitUntil(ctx, env.NotBefore)
			c.worker.Process(ctx, env)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.ErrorContext(ctx, "offset commit failed", "error", err)
		}
		c.client.AllowRebalance()
	}
}

// RunInbox drives a Worker from an in-memory bus. Used by tests and
// single-process local runs.
func (w *Worker) RunInbox(ctx context.Context, inbox <-chan events.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-inbox:
			if !ok {
				return
			}
			waitUntil(ctx, env.NotBefore)
			w.Process(ctx, env)
		}
	}
}

// waitUntil honors an envelope's retry backoff. Backoffs are short (bounded
// by the attempt cap), so blocking the consumer briefly is acceptable.
func waitUntil(ctx context.Context, notBefore time.Time) {
	delay := time.Until(notBefore)
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
