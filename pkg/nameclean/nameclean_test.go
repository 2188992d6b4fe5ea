package nameclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Rahul   Sharma ", "Rahul Sharma"},
		{"Rahul123", "Rahul"},
		{"📱 Priya 🎉", "Priya"},
		{"O'Brien", "O'Brien"},
		{"Dr. A.P. Verma", "Dr. A.P. Verma"},
		{"Jean-Luc", "Jean-Luc"},
		{"9876543210", ""},
		{"!!!", ""},
		{"...", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Clean(tc.in), "Clean(%q)", tc.in)
	}
}

func TestIsJunk(t *testing.T) {
	junk := []string{"", "N/A", "Unknown", "x", "spam", "Test", "none"}
	for _, in := range junk {
		assert.True(t, IsJunk(Clean(in)), "expected junk: %q", in)
	}

	real := []string{"Rahul", "Rahul Sharma", "Amma", "O'Brien"}
	for _, in := range real {
		assert.False(t, IsJunk(Clean(in)), "expected real name: %q", in)
	}
}

func TestCleanAndValidateFillerOnly(t *testing.T) {
	// Filler-only inputs must never produce a contribution.
	for _, in := range []string{"N/A", "unknown", ".", "-", "👍", "12345"} {
		_, ok := CleanAndValidate(in)
		assert.False(t, ok, "filler input %q must be rejected", in)
	}

	got, ok := CleanAndValidate("  rahul  sharma ")
	assert.True(t, ok)
	assert.Equal(t, "rahul sharma", got)
}
