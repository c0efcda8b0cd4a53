package fusion

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/search/filter"
	"github.com/kailas-cloud/courserec/internal/domain/search/result"
)

// Searcher runs the two retrieval legs over the embedding index.
type Searcher interface {
	SearchKNN(ctx context.Context, vector []float32, filters filter.Expression, topK int) ([]result.Result, error)
	SearchBM25(ctx context.Context, query string, filters filter.Expression, topK int) ([]result.Result, error)
}

// CourseResolver maps index hits back to live course records.
type CourseResolver interface {
	OfferedByIDs(ctx context.Context, ids []string) ([]course.Course, error)
}
