package resolve

import "strings"

// ClusterThreshold is the minimum similarity for a contribution to join an
// existing cluster instead of founding a new one.
const ClusterThreshold = 0.55

// Similarity scores two cleaned names in [0,1] using a Dice coefficient over
// tokens. Tokens match exactly or by prefix (>= 3 runes), so "Rahul" and
// "Rahul Sharma" land well above ClusterThreshold while unrelated names do
// not.
func Similarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	matched := make([]bool, len(tb))
	matches := 0
	for _, tok := range ta {
		for j, other := range tb {
			if matched[j] {
				continue
			}
			if tokensMatch(tok, other) {
				matched[j] = true
				matches++
				break
			}
		}
	}
	return 2 * float64(matches) / float64(len(ta)+len(tb))
}

func tokenize(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".'-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	// Prefix matching folds initials-free short forms into full names
	// ("raj" / "rajesh") without equating arbitrary short tokens.
	if len(a) >= 3 && strings.HasPrefix(b, a) {
		return true
	}
	if len(b) >= 3 && strings.HasPrefix(a, b) {
		return true
	}
	return false
}

// meanPairwiseSimilarity is the internal-consistency input of cluster
// scoring: the average similarity over every variant pair. A single-variant
// cluster is perfectly consistent.
func meanPairwiseSimilarity(variants []string) float64 {
	if len(variants) <= 1 {
		return 1
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(variants); i++ {
		for j := i + 1; j < len(variants); j++ {
			sum += Similarity(variants[i], variants[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}
