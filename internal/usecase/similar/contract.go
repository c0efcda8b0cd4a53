package similar

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/usecase/fusion"
	"github.com/kailas-cloud/courserec/internal/usecase/graph"
)

// CourseStore loads the seed course.
type CourseStore interface {
	GetCourse(ctx context.Context, id string) (course.Course, error)
}

// EmbeddingStore reads the seed's stored embedding.
type EmbeddingStore interface {
	Get(ctx context.Context, courseID string, t domain.EmbeddingType) (domain.CourseEmbedding, error)
}

// Ranker runs the rank fusion engine.
type Ranker interface {
	Search(ctx context.Context, q *fusion.Query) (fusion.Ranking, error)
}

// GraphBuilder materializes the requirement neighbourhood of a course.
type GraphBuilder interface {
	Materialize(ctx context.Context, root *course.Course, maxDepth int) (graph.Graph, error)
}
