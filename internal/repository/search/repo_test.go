package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain/search/filter"
)

func entry(key, courseID, subject string, score float64) db.SearchEntry {
	return db.SearchEntry{
		Key:   key,
		Score: score,
		Fields: map[string]string{
			"course_id":      courseID,
			"subject_number": subject,
			"department":     "6",
			"embedding_type": "description",
			"source_text":    "  Covers supervised learning.  ",
		},
	}
}

func TestSearchKNN_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	excl := mustExpression(t,
		[]filter.Condition{mustMatch(t, "embedding_type", "description")},
		[]filter.Condition{mustMatch(t, "subject_number", "6.3900")},
	)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "courserec:embeddings" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.K != 30 {
			t.Errorf("unexpected K: %d", q.K)
		}
		if q.VectorField != "vector" {
			t.Errorf("unexpected vector field: %s", q.VectorField)
		}
		if len(q.Filters.MustNot()) != 1 {
			t.Errorf("filters not forwarded")
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				entry("courserec:emb:c-1:description", "c-1", "6.7900", 0.91),
				entry("courserec:emb:c-2:description", "c-2", "6.8611", 0.72),
			},
		}, nil
	}

	results, err := repo.SearchKNN(context.Background(), testVector(), excl, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID() != "c-1:description" {
		t.Errorf("expected prefix stripped, got %s", results[0].ID())
	}
	if results[0].CourseID() != "c-1" || results[0].SubjectNumber() != "6.7900" {
		t.Errorf("unexpected result %+v", results[0])
	}
	if results[0].Score() != 0.91 {
		t.Errorf("expected score 0.91, got %f", results[0].Score())
	}
	if results[0].Snippet() != "Covers supervised learning." {
		t.Errorf("snippet = %q", results[0].Snippet())
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	results, err := repo.SearchKNN(context.Background(), testVector(), filter.Expression{}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", results)
	}
}

func TestSearchKNN_MissingIndexIsDistinguishable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}

	_, err := repo.SearchKNN(context.Background(), testVector(), filter.Expression{}, 5)
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
	if db.FailureKind(err) != db.FailureMissingIndex {
		t.Errorf("FailureKind = %s", db.FailureKind(err))
	}
}

func TestSearchBM25_FuzzyOverTextFields(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchBM25Fn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if !q.Fuzzy {
			t.Error("expected fuzzy matching")
		}
		if strings.Join(q.Fields, ",") != "title,source_text" {
			t.Errorf("fields = %v", q.Fields)
		}
		if q.Query != "linear algebra" || q.TopK != 15 {
			t.Errorf("unexpected query %+v", q)
		}
		return &db.SearchResult{
			Total:   1,
			Entries: []db.SearchEntry{entry("courserec:emb:c-3:description", "c-3", "18.06", 4.2)},
		}, nil
	}

	results, err := repo.SearchBM25(context.Background(), "linear algebra", filter.Expression{}, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].SubjectNumber() != "18.06" || results[0].Score() != 4.2 {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestSearchBM25_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchBM25Fn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		return nil, db.ErrConnection
	}
	if _, err := repo.SearchBM25(context.Background(), "x", filter.Expression{}, 1); !errors.Is(err, db.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestSnippet_Truncates(t *testing.T) {
	long := strings.Repeat("é", snippetRunes+10)
	got := snippet(long)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := len([]rune(got)); n != snippetRunes+1 {
		t.Errorf("expected %d runes, got %d", snippetRunes+1, n)
	}
}
