package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

// Department recommends highly rated courses in the learner's declared programs.
type Department struct {
	ratings   RatingStore
	courses   SubjectResolver
	minRating float64
	minCount  int
}

// NewDepartment creates the department affinity source.
func NewDepartment(ratings RatingStore, courses SubjectResolver, minRating float64, minCount int) *Department {
	if minRating <= 0 {
		minRating = 5.5
	}
	if minCount <= 0 {
		minCount = 3
	}
	return &Department{ratings: ratings, courses: courses, minRating: minRating, minCount: minCount}
}

// Recommend ranks rated courses in the learner's departments by average rating.
func (s *Department) Recommend(
	ctx context.Context, req *recommend.Request, limit int,
) ([]recommendation.Recommendation, error) {
	depts := req.Learner.Departments()
	if len(depts) == 0 || limit <= 0 {
		return []recommendation.Recommendation{}, nil
	}

	aggs, err := s.ratings.RatingAggregates(ctx, depts)
	if err != nil {
		return nil, fmt.Errorf("rating aggregates: %w", err)
	}
	kept := filterAggregates(aggs, s.minRating, s.minCount)

	subjects := make([]string, 0, len(kept))
	for _, a := range kept {
		if !req.TakenSet.Has(a.SubjectNumber) {
			subjects = append(subjects, a.SubjectNumber)
		}
	}
	live, err := resolveSubjects(ctx, s.courses, subjects)
	if err != nil {
		return nil, err
	}

	recs := make([]recommendation.Recommendation, 0, len(subjects))
	for _, a := range kept {
		c, ok := live[course.NormalizeSubject(a.SubjectNumber)]
		if !ok {
			continue
		}
		reason := fmt.Sprintf("rated %.1f/7 across %d reviews in department %s", a.AvgRating, a.ReviewCount, c.Dept())
		recs = append(recs, recommendation.New(c, a.AvgRating, reason))
	}
	return finish(req, recs, limit), nil
}

// filterAggregates keeps subjects meeting both thresholds, best rated first.
// More reviews break rating ties; remaining ties keep input order.
func filterAggregates(aggs []course.RatingAggregate, minRating float64, minCount int) []course.RatingAggregate {
	out := make([]course.RatingAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.AvgRating >= minRating && a.ReviewCount >= minCount {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgRating != out[j].AvgRating {
			return out[i].AvgRating > out[j].AvgRating
		}
		return out[i].ReviewCount > out[j].ReviewCount
	})
	return out
}
