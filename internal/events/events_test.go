package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

func numbers(n int) []phone.Number {
	out := make([]phone.Number, n)
	for i := range out {
		out[i] = phone.Number(fmt.Sprintf("+9198%08d", i))
	}
	return out
}

func TestExpandChunksBulkEvents(t *testing.T) {
	envs := Expand(ContactSync{Phones: numbers(250), Actor: id.NewContributorID(), At: time.Now()})

	require.Len(t, envs, 3, "250 numbers must produce exactly 3 jobs")
	sizes := make([]int, len(envs))
	for i, env := range envs {
		sizes[i] = len(env.Event.Numbers())
		assert.Equal(t, TypeContactSync, env.Type)
		assert.Equal(t, DefaultMaxAttempts, env.MaxAttempts)
	}
	assert.Equal(t, []int{100, 100, 50}, sizes)
}

func TestExpandSingleNumberEvents(t *testing.T) {
	n := phone.MustNormalize("+919876543210")
	for _, event := range []Event{
		SpamReport{Phone: n, At: time.Now()},
		NameContribution{Phone: n, At: time.Now()},
		ProfileEdit{Phone: n, At: time.Now()},
	} {
		envs := Expand(event)
		require.Len(t, envs, 1)
		assert.Equal(t, event.EventType(), envs[0].Type)
		assert.Equal(t, []phone.Number{n}, envs[0].Event.Numbers())
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := NewEnvelope(SpamReport{
		Phone: phone.MustNormalize("+919876543210"),
		Actor: id.NewContributorID(),
		At:    time.Now().UTC(),
	})

	raw, err := env.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, env.Type, decoded.Type)
	assert.Equal(t, env.MaxAttempts, decoded.MaxAttempts)

	report, ok := decoded.Event.(SpamReport)
	require.True(t, ok, "payload must decode to its concrete type")
	assert.Equal(t, phone.Number("+919876543210"), report.Phone)
}

func TestUnmarshalEnvelopeRejectsUnknownType(t *testing.T) {
	_, err := UnmarshalEnvelope([]byte(`{"id":"7b6a2f3e-28b8-4ad5-9e5c-1d8c7a09e111","type":"mystery","payload":{}}`))
	assert.Error(t, err)
}

func TestNextAttemptBackoff(t *testing.T) {
	now := time.Now()
	env := NewEnvelope(SpamReport{Phone: phone.MustNormalize("+919876543210"), At: now})

	first, ok := env.NextAttempt(now)
	require.True(t, ok)
	assert.Equal(t, 1, first.Attempts)
	assert.Equal(t, now.Add(3*time.Second), first.NotBefore)

	second, ok := first.NextAttempt(now)
	require.True(t, ok)
	assert.Equal(t, 2, second.Attempts)
	assert.Equal(t, now.Add(6*time.Second), second.NotBefore)

	_, ok = second.NextAttempt(now)
	assert.False(t, ok, "attempts are exhausted after MaxAttempts deliveries")
}

func TestMemoryBusEmit(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	require.NoError(t, bus.Emit(ctx, ContactSync{Phones: numbers(150), At: time.Now()}))
	assert.Equal(t, 2, bus.Len())

	env := <-bus.Inbox()
	assert.Equal(t, TypeContactSync, env.Type)
	assert.Len(t, env.Event.Numbers(), 100)
}
