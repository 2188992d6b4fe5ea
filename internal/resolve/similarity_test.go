package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"calldex/internal/profile/models"
)

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b    string
		atLeast float64
		atMost  float64
	}{
		{"Rahul", "Rahul Sharma", ClusterThreshold, 1.0},
		{"Rahul Sharma", "rahul sharma", 1.0, 1.0},
		{"Rahul", "Priya", 0, 0.1},
		{"Raj", "Rajesh Kumar", ClusterThreshold, 1.0},
		{"Amit Verma", "Verma Amit", 1.0, 1.0},
		{"", "Rahul", 0, 0},
	}
	for _, tc := range cases {
		got := Similarity(tc.a, tc.b)
		assert.GreaterOrEqual(t, got, tc.atLeast, "Similarity(%q, %q)", tc.a, tc.b)
		assert.LessOrEqual(t, got, tc.atMost, "Similarity(%q, %q)", tc.a, tc.b)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Rahul", "Rahul Sharma"},
		{"Amit Kumar Verma", "Amit"},
		{"Priya", "Priyanka"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), 1e-9)
	}
}

func TestTrustWeight(t *testing.T) {
	now := time.Now()

	t.Run("anonymous evidence has base weight", func(t *testing.T) {
		assert.Equal(t, 1.0, TrustWeight(nil, now))
	})

	t.Run("fresh unverified account", func(t *testing.T) {
		c := &models.Contributor{TrustScore: 1.0, CreatedAt: now}
		assert.InDelta(t, 1.0, TrustWeight(c, now), 1e-9)
	})

	t.Run("phone and document verification stack", func(t *testing.T) {
		c := &models.Contributor{
			PhoneVerified:    true,
			DocumentVerified: true,
			TrustScore:       1.0,
			CreatedAt:        now,
		}
		assert.InDelta(t, 1.9, TrustWeight(c, now), 1e-9)
	})

	t.Run("account age caps at half a point", func(t *testing.T) {
		c := &models.Contributor{TrustScore: 1.0, CreatedAt: now.Add(-5 * 365 * 24 * time.Hour)}
		assert.InDelta(t, 1.5, TrustWeight(c, now), 1e-9)
	})

	t.Run("suspicious flag collapses the weight", func(t *testing.T) {
		c := &models.Contributor{
			PhoneVerified: true,
			TrustScore:    1.0,
			Suspicious:    true,
			CreatedAt:     now,
		}
		assert.InDelta(t, 0.13, TrustWeight(c, now), 1e-9)
	})
}

func TestRecencyScore(t *testing.T) {
	assert.Equal(t, 1.0, recencyScore(0))
	assert.Equal(t, 0.0, recencyScore(recencyFullDecay))
	assert.Equal(t, 0.0, recencyScore(2*recencyFullDecay))

	fresh := recencyScore(24 * time.Hour)
	old := recencyScore(300 * 24 * time.Hour)
	assert.Greater(t, fresh, old)
}

func TestBestVariant(t *testing.T) {
	t.Run("prefers the complete proper-cased form", func(t *testing.T) {
		got := bestVariant([]string{"rahul", "Rahul Sharma", "R Sharma"})
		assert.Equal(t, "Rahul Sharma", got)
	})

	t.Run("capitalizes the chosen variant", func(t *testing.T) {
		got := bestVariant([]string{"rahul sharma"})
		assert.Equal(t, "Rahul Sharma", got)
	})

	t.Run("penalizes single-character tokens", func(t *testing.T) {
		got := bestVariant([]string{"A Kumar", "Anil Kumar"})
		assert.Equal(t, "Anil Kumar", got)
	})
}
