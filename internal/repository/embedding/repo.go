// Package embedding stores precomputed course embeddings as Redis hashes
// covered by a single vector + text index.
package embedding

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain"
)

// store is the consumer interface for embeddings (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	EnsureIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo reads and writes course embeddings.
type Repo struct {
	store store
	cfg   Config
}

// New creates an embedding repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Key returns the hash key of one (course, type) embedding.
func (r *Repo) Key(courseID string, t domain.EmbeddingType) string {
	return fmt.Sprintf("%s%s:%s", r.cfg.KeyPrefix, courseID, t)
}

// EnsureIndex creates the search index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := buildIndex(r.cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.EnsureIndex(ctx, def); err != nil {
		return fmt.Errorf("ensure index %s: %w", def.Name, err)
	}
	return nil
}

// Get returns the stored embedding of a course offering.
// A course without an embedding of that type yields domain.ErrEmbeddingMissing.
func (r *Repo) Get(ctx context.Context, courseID string, t domain.EmbeddingType) (domain.CourseEmbedding, error) {
	key := r.Key(courseID, t)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.CourseEmbedding{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domain.CourseEmbedding{}, domain.ErrEmbeddingMissing
	}

	e, err := parseHashFields(m)
	if err != nil {
		return domain.CourseEmbedding{}, fmt.Errorf("parse %s: %w", key, err)
	}
	if len(e.Embedding.Vector) == 0 {
		return domain.CourseEmbedding{}, domain.ErrEmbeddingMissing
	}
	return e, nil
}

// GetMany returns the embeddings of the given course offerings keyed by course ID.
// Courses without an embedding are absent from the map.
func (r *Repo) GetMany(
	ctx context.Context, courseIDs []string, t domain.EmbeddingType,
) (map[string]domain.CourseEmbedding, error) {
	out := make(map[string]domain.CourseEmbedding, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(courseIDs))
	for i, id := range courseIDs {
		keys[i] = r.Key(id, t)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		e, err := parseHashFields(m)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		if len(e.Embedding.Vector) == 0 {
			continue
		}
		out[courseIDs[i]] = e
	}
	return out, nil
}

// Upsert writes embeddings in one pipelined round-trip.
// Each (course, type) pair maps to one key, so rewriting replaces the previous vector.
func (r *Repo) Upsert(ctx context.Context, embs []domain.CourseEmbedding) error {
	if len(embs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(embs))
	for i := range embs {
		if err := embs[i].Validate(r.cfg.Dimensions); err != nil {
			return fmt.Errorf("embedding %s/%s: %w", embs[i].CourseID, embs[i].Type, err)
		}
		items[i] = db.HashSetItem{
			Key:    r.Key(embs[i].CourseID, embs[i].Type),
			Fields: buildHashFields(&embs[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

// Delete removes one embedding. Deleting a missing embedding is not an error.
func (r *Repo) Delete(ctx context.Context, courseID string, t domain.EmbeddingType) error {
	key := r.Key(courseID, t)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}
