// Package booster rescales recommendations by how well a learner meets their requirements.
package booster

import (
	"sort"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/prereq"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
)

// Score multipliers by satisfaction tier.
const (
	MultiplierBoth         = 1.3
	MultiplierPrerequisite = 1.2
	MultiplierCorequisite  = 1.1
	MultiplierNone         = 1.0
)

// Reason suffixes appended to the recommendation explanation.
const (
	SuffixBoth           = "; you meet all prerequisites and have taken a corequisite"
	SuffixPrerequisites  = "; you meet all prerequisites"
	SuffixNoPrerequisite = "; no prerequisites required"
	SuffixCorequisite    = "; you have taken a corequisite"
)

// Tier returns the multiplier and reason suffix for a course given the learner's taken closure.
func Tier(c *course.Course, taken course.TakenSet) (float64, string) {
	req := prereq.Parse(c)
	sat := req.Evaluate(taken)

	switch {
	case sat.Prerequisites && sat.Corequisites:
		return MultiplierBoth, SuffixBoth
	case sat.Prerequisites:
		if len(req.Prerequisites) == 0 {
			return MultiplierPrerequisite, SuffixNoPrerequisite
		}
		return MultiplierPrerequisite, SuffixPrerequisites
	case sat.Corequisites:
		return MultiplierCorequisite, SuffixCorequisite
	default:
		return MultiplierNone, ""
	}
}

// Apply sets the requirement multiplier on one recommendation.
// The multiplier replaces any previous one, so applying twice never compounds.
func Apply(r recommendation.Recommendation, taken course.TakenSet) recommendation.Recommendation {
	c := r.Course()
	m, suffix := Tier(&c, taken)
	return r.WithMultiplier(m, suffix)
}

// ApplyAll boosts every recommendation and re-sorts by final score.
// Equal scores keep their input order.
func ApplyAll(recs []recommendation.Recommendation, taken course.TakenSet) []recommendation.Recommendation {
	out := make([]recommendation.Recommendation, len(recs))
	for i := range recs {
		out[i] = Apply(recs[i], taken)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}
