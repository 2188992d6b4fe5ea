package resolve

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// Cluster scoring weights. They sum to 1.0; the score of a cluster is the
// weighted combination of six independently normalized components.
const (
	weightFrequency    = 0.20
	weightTrust        = 0.25
	weightCompleteness = 0.15
	weightDiversity    = 0.15
	weightRecency      = 0.10
	weightConsistency  = 0.15

	completenessTokenCap = 3
	diversitySourceCap   = 3
	recencyFullDecay     = 365 * 24 * time.Hour
)

// scoreCluster computes one cluster's score given pass-wide totals.
func scoreCluster(c *cluster, totalContributions int, totalWeight float64, now time.Time) float64 {
	frequency := 0.0
	if totalContributions > 0 {
		frequency = float64(len(c.contributions)) / float64(totalContributions)
	}

	trust := 0.0
	if totalWeight > 0 {
		trust = c.totalWeight / totalWeight
	}

	tokens := len(tokenize(c.representative))
	completeness := float64(min(tokens, completenessTokenCap)) / completenessTokenCap

	diversity := float64(min(len(c.sources), diversitySourceCap)) / diversitySourceCap

	recency := recencyScore(c.avgAge(now))

	consistency := meanPairwiseSimilarity(c.variants)

	return weightFrequency*frequency +
		weightTrust*trust +
		weightCompleteness*completeness +
		weightDiversity*diversity +
		weightRecency*recency +
		weightConsistency*consistency
}

// recencyScore decays exponentially with the cluster's average contribution
// age and bottoms out at zero once the average age reaches one year.
func recencyScore(avgAge time.Duration) float64 {
	if avgAge <= 0 {
		return 1
	}
	if avgAge >= recencyFullDecay {
		return 0
	}
	return math.Exp(-3 * float64(avgAge) / float64(recencyFullDecay))
}

// bestVariant picks the display form out of the winning cluster: prefer more
// tokens, moderate-to-long length, no single-character tokens, and
// proper-case formatting.
func bestVariant(variants []string) string {
	best := ""
	bestScore := math.Inf(-1)
	for _, v := range variants {
		if score := variantScore(v); score > bestScore {
			best = v
			bestScore = score
		}
	}
	return capitalizeName(best)
}

func variantScore(v string) float64 {
	tokens := tokenize(v)
	score := 2.0 * float64(min(len(tokens), completenessTokenCap))

	if n := len([]rune(v)); n >= 5 && n <= 30 {
		score += 1.0
	}

	for _, t := range tokens {
		if len([]rune(t)) == 1 {
			score -= 1.0
		}
	}

	if isProperCase(v) {
		score += 0.5
	}
	return score
}

func isProperCase(v string) bool {
	for _, word := range strings.Fields(v) {
		runes := []rune(word)
		first := runes[0]
		if unicode.IsLetter(first) && !unicode.IsUpper(first) {
			return false
		}
		for _, r := range runes[1:] {
			if unicode.IsLetter(r) && unicode.IsUpper(r) {
				return false
			}
		}
	}
	return true
}

// capitalizeName title-cases each word of the chosen variant.
func capitalizeName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		for j, r := range runes {
			if unicode.IsLetter(r) {
				runes[j] = unicode.ToUpper(r)
				break
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
