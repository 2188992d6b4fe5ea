package resolve

import (
	"time"

	"calldex/internal/profile/models"
	"calldex/pkg/nameclean"
)

// cluster accumulates the contributions folded into one name group during a
// resolution pass. It carries the scoring inputs that the persisted
// models.NameCluster does not need.
type cluster struct {
	representative string
	variants       []string
	contributions  []models.NameContribution
	totalWeight    float64
	sources        map[models.ContributionSource]struct{}
}

func (c *cluster) add(contribution models.NameContribution) {
	c.contributions = append(c.contributions, contribution)
	c.totalWeight += contribution.TrustWeight
	c.sources[contribution.Source] = struct{}{}

	seen := false
	for _, v := range c.variants {
		if v == contribution.CleanedName {
			seen = true
			break
		}
	}
	if !seen {
		c.variants = append(c.variants, contribution.CleanedName)
	}

	// The longest variant represents the cluster; later contributions
	// compare against the most complete form seen so far.
	if len(contribution.CleanedName) > len(c.representative) {
		c.representative = contribution.CleanedName
	}
}

func (c *cluster) avgAge(now time.Time) time.Duration {
	if len(c.contributions) == 0 {
		return 0
	}
	var total time.Duration
	for _, contribution := range c.contributions {
		total += now.Sub(contribution.CreatedAt)
	}
	return total / time.Duration(len(c.contributions))
}

// buildClusters greedily groups contributions by name similarity: each
// contribution joins the best-matching existing cluster at or above
// ClusterThreshold, else founds a new one. Junk names are filtered out and
// contribute nothing. Contribution counts per identity are small, so the
// nested comparison loop is fine.
func buildClusters(contributions []models.NameContribution) []*cluster {
	var clusters []*cluster
	for _, contribution := range contributions {
		if nameclean.IsJunk(contribution.CleanedName) {
			continue
		}

		var best *cluster
		bestScore := 0.0
		for _, existing := range clusters {
			score := Similarity(contribution.CleanedName, existing.representative)
			if score >= ClusterThreshold && score > bestScore {
				best = existing
				bestScore = score
			}
		}

		if best == nil {
			best = &cluster{sources: make(map[models.ContributionSource]struct{})}
			clusters = append(clusters, best)
		}
		best.add(contribution)
	}
	return clusters
}

// toModel converts a pass-local cluster into its persisted form.
func (c *cluster) toModel() models.NameCluster {
	return models.NameCluster{
		Representative:  c.representative,
		Variants:        append([]string(nil), c.variants...),
		TotalWeight:     c.totalWeight,
		OccurrenceCount: len(c.contributions),
	}
}
