package events

import (
	"context"
	"fmt"
)

// MemoryBus is a channel-backed bus for tests and single-process runs. The
// worker consumes its channel directly, which keeps background processing
// testable without a broker.
type MemoryBus struct {
	ch chan Envelope
}

func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 1024
	}
	return &MemoryBus{ch: make(chan Envelope, buffer)}
}

func (b *MemoryBus) Emit(ctx context.Context, event Event) error {
	for _, env := range Expand(event) {
		select {
		case b.ch <- env:
			emitted.WithLabelValues(string(env.Type)).Inc()
		case <-ctx.Done():
			emitFailures.WithLabelValues(string(env.Type)).Inc()
			return fmt.Errorf("emit %s: %w", env.Type, ctx.Err())
		}
	}
	return nil
}

// Requeue puts a retry envelope back on the queue.
func (b *MemoryBus) Requeue(ctx context.Context, env Envelope) error {
	select {
	case b.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbox exposes the consuming side of the queue.
func (b *MemoryBus) Inbox() <-chan Envelope { return b.ch }

// Len reports the number of queued envelopes. Test helper.
func (b *MemoryBus) Len() int { return len(b.ch) }
