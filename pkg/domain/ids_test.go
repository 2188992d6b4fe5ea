package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calldex/pkg/platform/sentinel"
)

// Parsing invariant: IDs arriving at trust boundaries must be valid,
// non-empty, non-nil UUIDs. Anonymous callers are represented by the zero
// value, never by parsing an empty string.
func TestParseContributorID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseContributorID("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseContributorID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseContributorID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		parsed, err := ParseContributorID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, valid.String(), parsed.String())
	})
}

func TestParseIdentityID_RoundTrip(t *testing.T) {
	orig := NewIdentityID()
	parsed, err := ParseIdentityID(orig.String())
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestParseEventID_RoundTrip(t *testing.T) {
	orig := NewEventID()
	parsed, err := ParseEventID(orig.String())
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestIsNil(t *testing.T) {
	assert.True(t, ContributorID{}.IsNil())
	assert.False(t, NewContributorID().IsNil())
	assert.True(t, IdentityID{}.IsNil())
	assert.False(t, NewIdentityID().IsNil())
	assert.True(t, EventID{}.IsNil())
	assert.False(t, NewEventID().IsNil())
}

// Typed IDs of different kinds never compare equal even when carrying the
// same UUID bytes; the compiler rejects the comparison outright.
func TestNewIDsAreUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		s := NewContributorID().String()
		_, dup := seen[s]
		require.False(t, dup)
		seen[s] = struct{}{}
	}
}
