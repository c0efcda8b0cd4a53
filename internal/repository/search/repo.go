// Package search runs vector and keyword queries over the course embedding index.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain/search/filter"
	"github.com/kailas-cloud/courserec/internal/domain/search/result"
	"github.com/kailas-cloud/courserec/internal/repository/embedding"
)

const snippetRunes = 200

var returnFields = []string{
	embedding.FieldCourseID,
	embedding.FieldSubjectNumber,
	embedding.FieldDepartment,
	embedding.FieldType,
	embedding.FieldTitle,
	embedding.FieldSourceText,
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo queries the embedding index.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a search repository over the given index and document key prefix.
func New(s store, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, keyPrefix: keyPrefix}
}

// SearchKNN performs a KNN (vector similarity) search with filter pre-filtering.
// Results are ordered by similarity, best first.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, topK int,
) ([]result.Result, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  embedding.FieldVector,
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}
	return r.parseResults(sr), nil
}

// SearchBM25 performs a fuzzy BM25 keyword search over titles and source texts.
// Results are ordered by BM25 score, best first.
func (r *Repo) SearchBM25(
	ctx context.Context, query string, filters filter.Expression, topK int,
) ([]result.Result, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName,
		Query:        query,
		Fields:       embedding.TextFields,
		Fuzzy:        true,
		Filters:      filters,
		TopK:         topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25 %s: %w", r.indexName, err)
	}
	return r.parseResults(sr), nil
}

func (r *Repo) parseResults(sr *db.SearchResult) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return []result.Result{}
	}

	out := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		f := entry.Fields
		out = append(out, result.New(
			strings.TrimPrefix(entry.Key, r.keyPrefix),
			f[embedding.FieldCourseID],
			f[embedding.FieldSubjectNumber],
			f[embedding.FieldDepartment],
			f[embedding.FieldType],
			entry.Score,
			snippet(f[embedding.FieldSourceText]),
		))
	}
	return out
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= snippetRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:snippetRunes])) + "…"
}
