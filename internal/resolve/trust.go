package resolve

import (
	"time"

	"calldex/internal/profile/models"
)

// Trust weight formula constants. The weight is computed once when a
// contribution is written and stored with it; it is never recomputed when the
// contributor's standing later changes.
const (
	trustBase            = 1.0
	trustPhoneVerified   = 0.3
	trustDocVerified     = 0.6
	trustPerAccountMonth = 0.05
	trustAccountAgeCap   = 0.5
	trustSuspiciousMult  = 0.1
	// anonymousTrustWeight applies to evidence with no contributor account,
	// such as bulk contact uploads.
	anonymousTrustWeight = 1.0
)

// TrustWeight computes the weight a contributor's evidence carries.
func TrustWeight(c *models.Contributor, now time.Time) float64 {
	if c == nil {
		return anonymousTrustWeight
	}

	weight := trustBase
	if c.PhoneVerified {
		weight += trustPhoneVerified
	}
	if c.DocumentVerified {
		weight += trustDocVerified
	}

	months := now.Sub(c.CreatedAt).Hours() / (24 * 30)
	if months > 0 {
		weight += min(months*trustPerAccountMonth, trustAccountAgeCap)
	}

	trustScore := c.TrustScore
	if trustScore <= 0 {
		trustScore = 1.0
	}
	weight *= trustScore

	if c.Suspicious {
		weight *= trustSuspiciousMult
	}
	return weight
}
