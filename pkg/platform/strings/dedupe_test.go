package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  family ", "\twork\n"},
			expected: []string{"family", "work"},
		},
		{
			name:     "drops duplicates keeping first order",
			input:    []string{"family", "work", "family", "service"},
			expected: []string{"family", "work", "service"},
		},
		{
			name:     "drops empties and whitespace-only",
			input:    []string{"family", "", "   ", "work"},
			expected: []string{"family", "work"},
		},
		{
			name:     "duplicate after trim collapses",
			input:    []string{"family", "  family"},
			expected: []string{"family"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
