// Package spam implements the weighted spam-scoring engine. Score is a pure
// function over aggregated signals; it performs no I/O and produces a
// deterministic, explainable result even when every optional input is absent.
package spam

import (
	"fmt"
	"math"
	"strings"
	"time"

	"calldex/internal/profile/models"
)

// Component weights. They sum to 1.0.
const (
	weightReporters  = 0.35
	weightRecent7d   = 0.20
	weightNameRatio  = 0.15
	weightFreshness  = 0.15
	weightAdvisory   = 0.15

	// Saturation points: the raw signal at which a component reads 100.
	reportersCap = 20
	recent7dCap  = 50

	// freshnessHalfLife halves the freshness component every 72 hours since
	// the newest report.
	freshnessHalfLife = 72 * time.Hour

	// SpamThreshold is the combined score above which a number is flagged.
	SpamThreshold = 50
)

// Signals aggregates the evidence the engine scores. Advisory is optional
// and defaults to absent.
type Signals struct {
	UniqueReporters int
	ReportsLast7d   int
	// SpamNameRatio is the share of contributors who saved the number under
	// a spam-indicative name, in [0,1].
	SpamNameRatio float64
	// NewestReportAge is the age of the most recent active report. Negative
	// when no report exists.
	NewestReportAge time.Duration
	HasReports      bool

	// Advisory carries the optional external score; nil when the advisory
	// service is absent, timed out, or failed.
	Advisory *AdvisorySignal
}

// AdvisorySignal is the optional external analyzer's contribution.
type AdvisorySignal struct {
	Score     float64 // 0..100
	Label     models.SpamCategory
	Rationale string
}

// Result is the engine's fully explainable verdict.
type Result struct {
	Score     float64 // 0..100
	IsSpam    bool
	Category  models.SpamCategory
	Reasoning string
}

// Score combines the five weighted components, each independently normalized
// to 0..100.
func Score(signals Signals) Result {
	reporters := normalize(float64(signals.UniqueReporters), reportersCap)
	recent := normalize(float64(signals.ReportsLast7d), recent7dCap)
	nameRatio := math.Min(signals.SpamNameRatio*2, 1) * 100
	freshness := freshnessScore(signals)

	advisory := 0.0
	if signals.Advisory != nil {
		advisory = clamp(signals.Advisory.Score, 0, 100)
	}

	combined := weightReporters*reporters +
		weightRecent7d*recent +
		weightNameRatio*nameRatio +
		weightFreshness*freshness +
		weightAdvisory*advisory

	return Result{
		Score:     combined,
		IsSpam:    combined > SpamThreshold,
		Category:  category(combined, signals.Advisory),
		Reasoning: reasoning(signals, reporters, recent, nameRatio, freshness, advisory, combined),
	}
}

// IsSpamIndicativeName reports whether a saved display name marks the number
// as unwanted. Used to build Signals.SpamNameRatio from contributions.
func IsSpamIndicativeName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range spamNameMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

var spamNameMarkers = []string{
	"spam", "scam", "fraud", "fake", "telemarket", "promo", "loan offer",
	"do not pick", "dont pick", "do not answer", "blocked", "annoying",
}

func normalize(value, limit float64) float64 {
	if value <= 0 {
		return 0
	}
	return math.Min(value/limit, 1) * 100
}

func freshnessScore(signals Signals) float64 {
	if !signals.HasReports || signals.NewestReportAge < 0 {
		return 0
	}
	halfLives := float64(signals.NewestReportAge) / float64(freshnessHalfLife)
	return 100 * math.Pow(0.5, halfLives)
}

func category(score float64, advisory *AdvisorySignal) models.SpamCategory {
	// The external label, when present, is more specific than score bands.
	if advisory != nil && advisory.Label != "" {
		return advisory.Label
	}
	switch {
	case score > 80:
		return models.CategoryScam
	case score > 60:
		return models.CategoryTelemarketer
	case score > 40:
		return models.CategorySuspected
	default:
		return models.CategoryLegitimate
	}
}

func reasoning(signals Signals, reporters, recent, nameRatio, freshness, advisory, combined float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d unique reporters (%.0f/100)", signals.UniqueReporters, reporters)
	fmt.Fprintf(&b, "; %d reports in 7d (%.0f/100)", signals.ReportsLast7d, recent)
	fmt.Fprintf(&b, "; spam-name ratio %.2f (%.0f/100)", signals.SpamNameRatio, nameRatio)
	fmt.Fprintf(&b, "; freshness %.0f/100", freshness)
	if signals.Advisory != nil {
		fmt.Fprintf(&b, "; advisory %.0f/100 (%s)", advisory, signals.Advisory.Rationale)
	} else {
		b.WriteString("; advisory absent")
	}
	fmt.Fprintf(&b, " => %.0f/100", combined)
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
