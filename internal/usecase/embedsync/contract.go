package embedsync

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
)

// CourseLister pages through offered courses.
type CourseLister interface {
	ListOffered(ctx context.Context, afterID string, limit int) ([]course.Course, error)
}

// ReviewSource returns review texts of consenting reviewers for a subject.
type ReviewSource interface {
	ReviewTexts(ctx context.Context, subject string) ([]string, error)
}

// EmbeddingStore persists course embeddings.
type EmbeddingStore interface {
	EnsureIndex(ctx context.Context) error
	Get(ctx context.Context, courseID string, t domain.EmbeddingType) (domain.CourseEmbedding, error)
	Upsert(ctx context.Context, embs []domain.CourseEmbedding) error
	Delete(ctx context.Context, courseID string, t domain.EmbeddingType) error
}
