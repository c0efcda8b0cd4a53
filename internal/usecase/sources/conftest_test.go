package sources

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/domain/search/filter"
	"github.com/kailas-cloud/courserec/internal/domain/search/result"
	"github.com/kailas-cloud/courserec/internal/usecase/fusion"
	"github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

type mockCourses struct {
	bySubjectsFn func(ctx context.Context, subjects []string) ([]course.Course, error)
	inDeptsFn    func(ctx context.Context, departments []string, limit int) ([]course.Course, error)
}

func (m *mockCourses) OfferedBySubjects(ctx context.Context, subjects []string) ([]course.Course, error) {
	if m.bySubjectsFn != nil {
		return m.bySubjectsFn(ctx, subjects)
	}
	return nil, nil
}

func (m *mockCourses) OfferedInDepartments(ctx context.Context, departments []string, limit int) ([]course.Course, error) {
	if m.inDeptsFn != nil {
		return m.inDeptsFn(ctx, departments, limit)
	}
	return nil, nil
}

// catalogOf answers OfferedBySubjects from a fixed set of live offerings.
func catalogOf(live ...course.Course) *mockCourses {
	return &mockCourses{
		bySubjectsFn: func(_ context.Context, subjects []string) ([]course.Course, error) {
			want := make(map[string]bool, len(subjects))
			for _, s := range subjects {
				want[course.NormalizeSubject(s)] = true
			}
			var out []course.Course
			for i := range live {
				if want[live[i].Key()] {
					out = append(out, live[i])
				}
			}
			return out, nil
		},
	}
}

type mockPeers struct {
	overlapsFn func(ctx context.Context, learnerID string, subjects []string, minOverlap int) ([]learner.PeerOverlap, error)
	coursesFn  func(ctx context.Context, learnerIDs []string) ([]learner.PeerCourse, error)
}

func (m *mockPeers) PeerOverlaps(
	ctx context.Context, learnerID string, subjects []string, minOverlap int,
) ([]learner.PeerOverlap, error) {
	if m.overlapsFn != nil {
		return m.overlapsFn(ctx, learnerID, subjects, minOverlap)
	}
	return nil, nil
}

func (m *mockPeers) PeerCourses(ctx context.Context, learnerIDs []string) ([]learner.PeerCourse, error) {
	if m.coursesFn != nil {
		return m.coursesFn(ctx, learnerIDs)
	}
	return nil, nil
}

type mockRatings struct {
	aggregatesFn func(ctx context.Context, departments []string) ([]course.RatingAggregate, error)
}

func (m *mockRatings) RatingAggregates(ctx context.Context, departments []string) ([]course.RatingAggregate, error) {
	if m.aggregatesFn != nil {
		return m.aggregatesFn(ctx, departments)
	}
	return nil, nil
}

type mockEmbeddings struct {
	getManyFn func(ctx context.Context, ids []string, t domain.EmbeddingType) (map[string]domain.CourseEmbedding, error)
}

func (m *mockEmbeddings) GetMany(
	ctx context.Context, ids []string, t domain.EmbeddingType,
) (map[string]domain.CourseEmbedding, error) {
	if m.getManyFn != nil {
		return m.getManyFn(ctx, ids, t)
	}
	return map[string]domain.CourseEmbedding{}, nil
}

// vectorsOf returns an embedding store holding a one-dimensional vector per course ID.
func vectorsOf(vectors map[string]float32) *mockEmbeddings {
	return &mockEmbeddings{
		getManyFn: func(_ context.Context, ids []string, _ domain.EmbeddingType) (map[string]domain.CourseEmbedding, error) {
			out := make(map[string]domain.CourseEmbedding)
			for _, id := range ids {
				if v, ok := vectors[id]; ok {
					out[id] = domain.CourseEmbedding{
						CourseID:  id,
						Type:      domain.EmbeddingDescription,
						Embedding: domain.VersionedEmbedding{Vector: []float32{v}},
					}
				}
			}
			return out, nil
		},
	}
}

type mockRanker struct {
	searchFn func(ctx context.Context, q *fusion.Query) (fusion.Ranking, error)
}

func (m *mockRanker) Search(ctx context.Context, q *fusion.Query) (fusion.Ranking, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return fusion.Ranking{}, nil
}

func offering(id, subject, title string) course.Course {
	return course.Course{ID: id, SubjectNumber: subject, Title: title, Offered: true, AcademicYear: 2025}
}

func newReq(programs []string, taken ...course.Course) *recommend.Request {
	return recommend.NewRequest(
		learner.Learner{ID: "l1", Programs: programs},
		taken,
		course.NewExclusionPolicy([]string{"UR", "URG"}, []string{"18.01"}),
		0.5,
	)
}

func subjects(recs []recommendation.Recommendation) []string {
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = recs[i].Course().SubjectNumber
	}
	return out
}

// indexSearcher is the embedding index behind a real fusion.Service.
type indexSearcher struct {
	knnFn  func(ctx context.Context, vector []float32, filters filter.Expression, topK int) ([]result.Result, error)
	bm25Fn func(ctx context.Context, query string, filters filter.Expression, topK int) ([]result.Result, error)
}

func (m *indexSearcher) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, topK int,
) ([]result.Result, error) {
	if m.knnFn != nil {
		return m.knnFn(ctx, vector, filters, topK)
	}
	return []result.Result{}, nil
}

func (m *indexSearcher) SearchBM25(
	ctx context.Context, query string, filters filter.Expression, topK int,
) ([]result.Result, error) {
	if m.bm25Fn != nil {
		return m.bm25Fn(ctx, query, filters, topK)
	}
	return []result.Result{}, nil
}

// liveByID resolves index hits to the given offered courses.
type liveByID map[string]course.Course

func newLiveByID(cs ...course.Course) liveByID {
	m := make(liveByID, len(cs))
	for _, c := range cs {
		m[c.ID] = c
	}
	return m
}

func (m liveByID) OfferedByIDs(_ context.Context, ids []string) ([]course.Course, error) {
	out := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := m[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
