package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Number
	}{
		{"already canonical", "+919876543210", "+919876543210"},
		{"bare national 10 digits", "9876543210", "+919876543210"},
		{"trunk zero", "09876543210", "+919876543210"},
		{"international 00 prefix", "00919876543210", "+919876543210"},
		{"spaces and dashes", "+91 98765-43210", "+919876543210"},
		{"parentheses", "(+91) 98765 43210", "+919876543210"},
		{"plus with dots", "+1.415.555.2671", "+14155552671"},
		{"short service number kept as-is", "1800123", "+1800123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"+919876543210",
		"9876543210",
		"09876543210",
		"00 91 98765 43210",
		"(+1) 415-555-2671",
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once.String())
		require.NoError(t, err)
		assert.Equal(t, once, twice, "Normalize must be idempotent for %q", in)
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12345", "+123456789012345678"} {
		_, err := Normalize(in)
		assert.Error(t, err, "expected rejection for %q", in)
	}
}
