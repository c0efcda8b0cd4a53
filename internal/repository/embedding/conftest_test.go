package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	delFn          func(ctx context.Context, key string) error
	ensureIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) EnsureIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.ensureIndexFn != nil {
		return m.ensureIndexFn(ctx, def)
	}
	return nil
}

func testConfig() Config {
	return Config{
		IndexName:  "courserec:embeddings",
		KeyPrefix:  "courserec:emb:",
		Dimensions: 3,
		HNSW:       HNSWConfig{M: 16, EFConstruct: 200},
	}
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testConfig()), ms
}

func testEmbedding(courseID string) domain.CourseEmbedding {
	return domain.CourseEmbedding{
		CourseID:      courseID,
		SubjectNumber: "6.3900",
		Department:    "6",
		Title:         "Introduction to Machine Learning",
		Type:          domain.EmbeddingDescription,
		SourceText:    "Supervised learning, neural networks.",
		Embedding: domain.VersionedEmbedding{
			Vector:      []float32{0.1, 0.2, 0.3},
			ModelID:     "text-embedding-3-small",
			GeneratedAt: time.Unix(1_700_000_000, 0).UTC(),
		},
	}
}
