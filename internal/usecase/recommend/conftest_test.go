package recommend

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
)

type mockLearners struct {
	getFn   func(ctx context.Context, id string) (learner.Learner, error)
	takenFn func(ctx context.Context, learnerID string) ([]course.Course, error)
}

func (m *mockLearners) GetLearner(ctx context.Context, id string) (learner.Learner, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return learner.Learner{ID: id}, nil
}

func (m *mockLearners) TakenCourses(ctx context.Context, learnerID string) ([]course.Course, error) {
	if m.takenFn != nil {
		return m.takenFn(ctx, learnerID)
	}
	return nil, nil
}

type mockGate struct {
	checkFn func(ctx context.Context, learnerID string) error
}

func (m *mockGate) Check(ctx context.Context, learnerID string) error {
	if m.checkFn != nil {
		return m.checkFn(ctx, learnerID)
	}
	return nil
}

type sourceFunc func(ctx context.Context, req *Request, limit int) ([]recommendation.Recommendation, error)

func (f sourceFunc) Recommend(ctx context.Context, req *Request, limit int) ([]recommendation.Recommendation, error) {
	return f(ctx, req, limit)
}

func fixed(items ...recommendation.Recommendation) sourceFunc {
	return func(context.Context, *Request, int) ([]recommendation.Recommendation, error) {
		return items, nil
	}
}

func failing(err error) sourceFunc {
	return func(context.Context, *Request, int) ([]recommendation.Recommendation, error) {
		return nil, err
	}
}

func rec(subject string, score float64, aliases ...string) recommendation.Recommendation {
	return recommendation.New(course.Course{ID: "id-" + subject, SubjectNumber: subject, Aliases: aliases}, score, "test")
}

func subjects(items []recommendation.Recommendation) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Course().SubjectNumber
	}
	return out
}
