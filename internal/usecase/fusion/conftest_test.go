package fusion

import (
	"context"
	"sync"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/search/filter"
	"github.com/kailas-cloud/courserec/internal/domain/search/result"
)

type mockSearcher struct {
	mu        sync.Mutex
	knnCalls  int
	bm25Calls int

	knnFn  func(ctx context.Context, vector []float32, filters filter.Expression, topK int) ([]result.Result, error)
	bm25Fn func(ctx context.Context, query string, filters filter.Expression, topK int) ([]result.Result, error)
}

func (m *mockSearcher) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, topK int,
) ([]result.Result, error) {
	m.mu.Lock()
	m.knnCalls++
	m.mu.Unlock()
	if m.knnFn != nil {
		return m.knnFn(ctx, vector, filters, topK)
	}
	return []result.Result{}, nil
}

func (m *mockSearcher) SearchBM25(
	ctx context.Context, query string, filters filter.Expression, topK int,
) ([]result.Result, error) {
	m.mu.Lock()
	m.bm25Calls++
	m.mu.Unlock()
	if m.bm25Fn != nil {
		return m.bm25Fn(ctx, query, filters, topK)
	}
	return []result.Result{}, nil
}

// mockCourses resolves every known, offered ID.
type mockCourses struct {
	byID map[string]course.Course
	err  error
}

func (m *mockCourses) OfferedByIDs(_ context.Context, ids []string) ([]course.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]course.Course, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if c, ok := m.byID[id]; ok && c.Offered && !seen[id] {
			seen[id] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func newCourses(cs ...course.Course) *mockCourses {
	m := &mockCourses{byID: map[string]course.Course{}}
	for _, c := range cs {
		m.byID[c.ID] = c
	}
	return m
}

func offered(id, subject string) course.Course {
	return course.Course{ID: id, SubjectNumber: subject, Offered: true}
}

// hit builds an index hit for course id with a single description embedding.
func hit(courseID, subject string) result.Result {
	return result.New(courseID+":description", courseID, subject, course.DepartmentPrefix(subject), "description", 0, "")
}

func testConfig() Config {
	return Config{
		Weights:             Weights{K: 60, Vector: 3.0, Keyword: 0.25},
		CandidateMultiplier: 3,
		MaxDepartmentBoost:  0.5,
		Breaker:             BreakerConfig{MaxFailures: 100},
	}
}
