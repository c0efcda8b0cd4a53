// Package sources implements the independent recommendation signals.
package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/usecase/booster"
	"github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

// finish drops disallowed and duplicate courses, applies the requirement
// boost when there is a history to evaluate against, and truncates.
func finish(req *recommend.Request, recs []recommendation.Recommendation, limit int) []recommendation.Recommendation {
	seen := make(course.TakenSet)
	out := make([]recommendation.Recommendation, 0, len(recs))
	for i := range recs {
		c := recs[i].Course()
		if !req.Allow(&c) || seen.Contains(&c) {
			continue
		}
		for _, id := range c.Identities() {
			seen[id] = struct{}{}
		}
		out = append(out, recs[i])
	}

	if req.HasHistory() {
		out = booster.ApplyAll(out, req.TakenSet)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// resolveSubjects maps each subject number to its most recent live offering.
func resolveSubjects(ctx context.Context, store SubjectResolver, subjects []string) (map[string]course.Course, error) {
	if len(subjects) == 0 {
		return map[string]course.Course{}, nil
	}
	offered, err := store.OfferedBySubjects(ctx, subjects)
	if err != nil {
		return nil, fmt.Errorf("resolve subjects: %w", err)
	}
	distinct := course.Dedupe(offered)
	out := make(map[string]course.Course, len(distinct))
	for i := range distinct {
		out[distinct[i].Key()] = distinct[i]
	}
	return out, nil
}

// sortedKeys returns the taken closure in a stable order for store queries.
func sortedKeys(set course.TakenSet) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
