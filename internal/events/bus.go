package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bus is the durable work queue between evidence intake and the profile
// worker. Emit enqueues every envelope the event expands to before returning;
// it never blocks on recomputation.
type Bus interface {
	Emit(ctx context.Context, event Event) error
}

var (
	emitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calldex_events_emitted_total",
		Help: "Domain events enqueued, by type",
	}, []string{"type"})

	emitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calldex_events_emit_failures_total",
		Help: "Domain events that could not be enqueued, by type",
	}, []string{"type"})
)

// Expand turns an event into its queue envelopes. Bulk fan-out events
// (contact-sync, batch-rebuild) are chunked into sub-batches of ChunkSize
// numbers so no single job is unbounded; everything else maps to exactly one
// envelope.
func Expand(event Event) []Envelope {
	switch e := event.(type) {
	case ContactSync:
		chunks := chunkNumbers(e.Phones)
		out := make([]Envelope, 0, len(chunks))
		for _, chunk := range chunks {
			out = append(out, NewEnvelope(ContactSync{Phones: chunk, Actor: e.Actor, At: e.At}))
		}
		return out
	case BatchRebuild:
		chunks := chunkNumbers(e.Phones)
		out := make([]Envelope, 0, len(chunks))
		for _, chunk := range chunks {
			out = append(out, NewEnvelope(BatchRebuild{Phones: chunk, At: e.At}))
		}
		return out
	case SpamReport, NameContribution, ProfileEdit:
		return []Envelope{NewEnvelope(event)}
	default:
		// Unreachable while the union stays sealed.
		return []Envelope{NewEnvelope(event)}
	}
}

func chunkNumbers[T any](items []T) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+ChunkSize-1)/ChunkSize)
	for start := 0; start < len(items); start += ChunkSize {
		end := min(start+ChunkSize, len(items))
		out = append(out, items[start:end])
	}
	return out
}
