package sources

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
	"github.com/kailas-cloud/courserec/internal/usecase/fusion"
)

// SubjectResolver loads live offerings by canonical subject number.
type SubjectResolver interface {
	OfferedBySubjects(ctx context.Context, subjects []string) ([]course.Course, error)
}

// PeerStore finds learners with overlapping course history.
type PeerStore interface {
	PeerOverlaps(ctx context.Context, learnerID string, subjects []string, minOverlap int) ([]learner.PeerOverlap, error)
	PeerCourses(ctx context.Context, learnerIDs []string) ([]learner.PeerCourse, error)
}

// RatingStore aggregates review ratings.
type RatingStore interface {
	RatingAggregates(ctx context.Context, departments []string) ([]course.RatingAggregate, error)
}

// DepartmentLister lists live offerings in departments.
type DepartmentLister interface {
	OfferedInDepartments(ctx context.Context, departments []string, limit int) ([]course.Course, error)
}

// EmbeddingStore reads precomputed course embeddings.
type EmbeddingStore interface {
	GetMany(ctx context.Context, courseIDs []string, t domain.EmbeddingType) (map[string]domain.CourseEmbedding, error)
}

// Ranker runs the rank fusion engine.
type Ranker interface {
	Search(ctx context.Context, q *fusion.Query) (fusion.Ranking, error)
}
