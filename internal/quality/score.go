// Package quality implements the deterministic heuristic score used for
// admission and eviction ranking. Scoring is pure: same candidate, same
// score, no I/O.
package quality

import "SaasScout/internal/domain"

// bucket awards points for the first threshold the value reaches.
// Thresholds and awards are strictly increasing so the score is
// monotonically non-decreasing in each signal.
type bucket struct {
	threshold int
	points    int
}

var (
	upvoteBuckets = []bucket{
		{1000, 50},
		{500, 40},
		{100, 30},
		{20, 15},
		{5, 5},
	}
	starBuckets = []bucket{
		{5000, 50},
		{1000, 40},
		{100, 25},
		{10, 10},
	}
	commentBuckets = []bucket{
		{100, 20},
		{20, 10},
		{5, 5},
	}
)

const (
	richDescriptionLen  = 200
	shortDescriptionLen = 80

	richDescriptionBonus  = 10
	shortDescriptionBonus = 5
	logoBonus             = 5

	// A live website is near-necessary evidence of a real commercial
	// product, hence the asymmetric bonus/penalty.
	websiteBonus     = 15
	noWebsitePenalty = -20
)

// Score computes the heuristic quality of a candidate.
func Score(c domain.CandidateRecord) int {
	score := award(upvoteBuckets, c.Upvotes) +
		award(starBuckets, c.Stars) +
		award(commentBuckets, c.Comments)

	switch {
	case len(c.Description) >= richDescriptionLen:
		score += richDescriptionBonus
	case len(c.Description) >= shortDescriptionLen:
		score += shortDescriptionBonus
	}

	if c.LogoURL != "" {
		score += logoBonus
	}

	if c.Website != "" {
		score += websiteBonus
	} else {
		score += noWebsitePenalty
	}

	return score
}

func award(buckets []bucket, value int) int {
	for _, b := range buckets {
		if value >= b.threshold {
			return b.points
		}
	}
	return 0
}
