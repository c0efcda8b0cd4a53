package domain

import (
	"context"
	"fmt"
	"time"
)

// Embedder is the shared text vectorization contract between layers.
// Only the out-of-band embedding job calls it; request paths read stored vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingType names the text a course embedding was derived from.
type EmbeddingType string

// Embedding type constants.
const (
	EmbeddingDescription EmbeddingType = "description"
	EmbeddingReviews     EmbeddingType = "reviews"
	EmbeddingContent     EmbeddingType = "content"
)

// IsValid checks if the type is one of the supported values.
func (t EmbeddingType) IsValid() bool {
	return t == EmbeddingDescription || t == EmbeddingReviews || t == EmbeddingContent
}

// VersionedEmbedding is a stored vector together with the model that produced it.
type VersionedEmbedding struct {
	Vector      []float32
	ModelID     string
	GeneratedAt time.Time
}

// IsStale reports whether the embedding must be regenerated for the current model.
// An empty vector is always stale.
func (e VersionedEmbedding) IsStale(currentModelID string) bool {
	if len(e.Vector) == 0 {
		return true
	}
	return e.ModelID != currentModelID
}

// CourseEmbedding is one embedding of one course offering.
type CourseEmbedding struct {
	CourseID      string
	SubjectNumber string
	Department    string
	Title         string
	Type          EmbeddingType
	SourceText    string
	Embedding     VersionedEmbedding
}

// Validate checks the embedding against the expected dimensionality.
func (e *CourseEmbedding) Validate(dims int) error {
	if e.CourseID == "" {
		return fmt.Errorf("course id is required")
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("unknown embedding type %q", e.Type)
	}
	if dims > 0 && len(e.Embedding.Vector) != dims {
		return fmt.Errorf("vector has %d dimensions, expected %d", len(e.Embedding.Vector), dims)
	}
	return nil
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends instruction and delegates to inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
