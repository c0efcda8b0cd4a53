package recommend

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
)

// Source is one independent recommendation signal.
// Implementations exclude courses req.Allow rejects and return at most limit items.
type Source interface {
	Recommend(ctx context.Context, req *Request, limit int) ([]recommendation.Recommendation, error)
}

// LearnerStore loads learner profiles and history.
type LearnerStore interface {
	GetLearner(ctx context.Context, id string) (learner.Learner, error)
	TakenCourses(ctx context.Context, learnerID string) ([]course.Course, error)
}

// Gate is the eligibility precondition. A nil error means the learner may proceed;
// a refusal wraps domain.ErrNotEligible.
type Gate interface {
	Check(ctx context.Context, learnerID string) error
}
