// Package recommendation holds the transient ranked-course value returned to callers.
package recommendation

import "github.com/kailas-cloud/courserec/internal/domain/course"

// Recommendation is a scored course with a human-readable explanation.
// Score is derived from the base score and the prerequisite multiplier,
// so re-applying the same multiplier never compounds.
type Recommendation struct {
	course     course.Course
	baseScore  float64
	baseReason string
	multiplier float64
	suffix     string
}

// New creates an unboosted recommendation.
func New(c course.Course, score float64, reason string) Recommendation {
	return Recommendation{course: c, baseScore: score, baseReason: reason, multiplier: 1}
}

// Course returns the recommended course record.
func (r Recommendation) Course() course.Course { return r.course }

// Score returns the final score.
func (r Recommendation) Score() float64 { return r.baseScore * r.multiplier }

// BaseScore returns the score before the prerequisite multiplier.
func (r Recommendation) BaseScore() float64 { return r.baseScore }

// Multiplier returns the applied prerequisite multiplier (1 when none).
func (r Recommendation) Multiplier() float64 { return r.multiplier }

// Reason returns the explanation including any boost suffix.
func (r Recommendation) Reason() string { return r.baseReason + r.suffix }

// WithMultiplier returns a copy carrying the given multiplier and reason suffix.
// The previous multiplier is replaced, not combined.
func (r Recommendation) WithMultiplier(m float64, suffix string) Recommendation {
	if m <= 0 {
		m = 1
	}
	r.multiplier = m
	r.suffix = suffix
	return r
}

// Rescore returns a copy with a new base score, keeping reason and multiplier.
func (r Recommendation) Rescore(score float64) Recommendation {
	r.baseScore = score
	return r
}

// Strategy names a recommendation signal source.
type Strategy string

// Strategy constants in canonical response order.
const (
	Collaborative Strategy = "collaborative"
	Department    Strategy = "department"
	Content       Strategy = "content"
	Embeddings    Strategy = "embeddings"
)

// AllStrategies lists every strategy in canonical order.
func AllStrategies() []Strategy {
	return []Strategy{Collaborative, Department, Content, Embeddings}
}

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == Collaborative || s == Department || s == Content || s == Embeddings
}

// Title returns the display heading for the strategy.
func (s Strategy) Title() string {
	switch s {
	case Collaborative:
		return "Learners like you also took"
	case Department:
		return "Top rated in your department"
	case Content:
		return "Based on your course history"
	case Embeddings:
		return "Similar to courses you took"
	default:
		return string(s)
	}
}

// Description returns the display subtitle for the strategy.
func (s Strategy) Description() string {
	switch s {
	case Collaborative:
		return "Courses taken by learners whose course history overlaps yours"
	case Department:
		return "Highly rated courses in your declared programs"
	case Content:
		return "Courses whose topics and departments match what you have taken"
	case Embeddings:
		return "Courses semantically and lexically similar to your recent courses"
	default:
		return ""
	}
}

// Group is one strategy's ranked list.
type Group struct {
	Strategy Strategy
	Items    []Recommendation
	Degraded bool
}

// Title returns the strategy title.
func (g Group) Title() string { return g.Strategy.Title() }

// Description returns the strategy description.
func (g Group) Description() string { return g.Strategy.Description() }
