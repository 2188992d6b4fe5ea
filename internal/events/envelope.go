package events

import (
	"encoding/json"
	"fmt"
	"time"

	id "calldex/pkg/domain"
	"calldex/pkg/platform/sentinel"
)

// Delivery policy defaults for every envelope.
const (
	DefaultMaxAttempts = 3
	// BackoffBase is the first retry delay; each further attempt doubles it.
	BackoffBase = 3 * time.Second
	// ChunkSize bounds bulk fan-out events so no single job is unbounded.
	ChunkSize = 100
)

// Envelope is the queue-boundary wrapper around one event: identity, delivery
// accounting, and the earliest time a consumer may process it.
type Envelope struct {
	ID          id.EventID
	Type        Type
	Attempts    int
	MaxAttempts int
	EnqueuedAt  time.Time
	NotBefore   time.Time
	Event       Event
}

// NewEnvelope wraps an event with default delivery policy.
func NewEnvelope(event Event) Envelope {
	now := time.Now()
	return Envelope{
		ID:          id.NewEventID(),
		Type:        event.EventType(),
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
		EnqueuedAt:  now,
		Event:       event,
	}
}

// NextAttempt returns a copy scheduled for retry with exponential backoff
// from BackoffBase. The second return is false once attempts are exhausted.
func (e Envelope) NextAttempt(now time.Time) (Envelope, bool) {
	if e.Attempts+1 >= e.MaxAttempts {
		return Envelope{}, false
	}
	next := e
	next.Attempts++
	next.NotBefore = now.Add(BackoffBase << (next.Attempts - 1))
	return next, true
}

type wireEnvelope struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	NotBefore   time.Time       `json:"not_before,omitzero"`
	Payload     json.RawMessage `json:"payload"`
}

// Marshal encodes the envelope for the queue.
func (e Envelope) Marshal() ([]byte, error) {
	payload, err := json.Marshal(e.Event)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return json.Marshal(wireEnvelope{
		ID:          e.ID.String(),
		Type:        e.Type,
		Attempts:    e.Attempts,
		MaxAttempts: e.MaxAttempts,
		EnqueuedAt:  e.EnqueuedAt,
		NotBefore:   e.NotBefore,
		Payload:     payload,
	})
}

// UnmarshalEnvelope decodes a queue record back into a typed envelope. The
// type tag selects the concrete payload; an unknown tag is an input error,
// not a crash.
func UnmarshalEnvelope(raw []byte) (Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var event Event
	switch wire.Type {
	case TypeContactSync:
		var e ContactSync
		if err := json.Unmarshal(wire.Payload, &e); err != nil {
			return Envelope{}, fmt.Errorf("unmarshal %s payload: %w", wire.Type, err)
		}
		event = e
	case TypeSpamReport:
		var e SpamReport
		if err := json.Unmarshal(wire.Payload, &e); err != nil {
			return Envelope{}, fmt.Errorf("unmarshal %s payload: %w", wire.Type, err)
		}
		event = e
	case TypeNameContribution:
		var e NameContribution
		if err := json.Unmarshal(wire.Payload, &e); err != nil {
			return Envelope{}, fmt.Errorf("unmarshal %s payload: %w", wire.Type, err)
		}
		event = e
	case TypeProfileEdit:
		var e ProfileEdit
		if err := json.Unmarshal(wire.Payload, &e); err != nil {
			return Envelope{}, fmt.Errorf("unmarshal %s payload: %w", wire.Type, err)
		}
		event = e
	case TypeBatchRebuild:
		var e BatchRebuild
		if err := json.Unmarshal(wire.Payload, &e); err != nil {
			return Envelope{}, fmt.Errorf("unmarshal %s payload: %w", wire.Type, err)
		}
		event = e
	default:
		return Envelope{}, fmt.Errorf("unknown event type %q: %w", wire.Type, sentinel.ErrInvalidInput)
	}

	eventID, err := id.ParseEventID(wire.ID)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:          eventID,
		Type:        wire.Type,
		Attempts:    wire.Attempts,
		MaxAttempts: wire.MaxAttempts,
		EnqueuedAt:  wire.EnqueuedAt,
		NotBefore:   wire.NotBefore,
		Event:       event,
	}, nil
}
