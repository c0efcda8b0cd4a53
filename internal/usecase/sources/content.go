package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

const maxReasonKeywords = 3

// ContentConfig holds content-based scoring parameters.
type ContentConfig struct {
	MinKeywordLength int
	TopDepartments   int
	CandidatePool    int
}

// Content recommends courses in the learner's most frequent departments whose
// titles share vocabulary with the courses they took.
type Content struct {
	courses DepartmentLister
	cfg     ContentConfig
}

// NewContent creates the content-based source.
func NewContent(courses DepartmentLister, cfg ContentConfig) *Content {
	if cfg.MinKeywordLength <= 0 {
		cfg.MinKeywordLength = 5
	}
	if cfg.TopDepartments <= 0 {
		cfg.TopDepartments = 3
	}
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = 500
	}
	return &Content{courses: courses, cfg: cfg}
}

// Recommend scores candidates by keyword overlap plus the share of taken
// courses in the candidate's department.
func (s *Content) Recommend(
	ctx context.Context, req *recommend.Request, limit int,
) ([]recommendation.Recommendation, error) {
	if !req.HasHistory() || limit <= 0 {
		return []recommendation.Recommendation{}, nil
	}

	taken := course.Dedupe(req.Taken)
	if len(taken) == 0 {
		return []recommendation.Recommendation{}, nil
	}
	deptCount := make(map[string]int)
	var deptOrder []string
	vocab := make(map[string]int)
	for i := range taken {
		d := taken[i].Dept()
		if deptCount[d] == 0 {
			deptOrder = append(deptOrder, d)
		}
		deptCount[d]++
		for _, kw := range s.keywords(taken[i].Title) {
			vocab[kw]++
		}
	}
	top := topDepartments(deptOrder, deptCount, s.cfg.TopDepartments)

	candidates, err := s.courses.OfferedInDepartments(ctx, top, s.cfg.CandidatePool)
	if err != nil {
		return nil, fmt.Errorf("offered in departments: %w", err)
	}
	candidates = course.Dedupe(candidates)

	recs := make([]recommendation.Recommendation, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if !req.Allow(&c) {
			continue
		}
		overlap, shared := 0, []string(nil)
		for _, kw := range s.keywords(c.Title) {
			if n := vocab[kw]; n > 0 {
				overlap += n
				shared = append(shared, kw)
			}
		}
		deptTerm := float64(deptCount[c.Dept()]) / float64(len(taken))
		recs = append(recs, recommendation.New(c, float64(overlap)+deptTerm, contentReason(&c, shared)))
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score() > recs[j].Score() })

	return finish(req, recs, limit), nil
}

// keywords returns the distinct lowercased title tokens of at least the minimum length.
func (s *Content) keywords(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < s.cfg.MinKeywordLength {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// topDepartments returns the n most frequent departments; ties keep first appearance.
func topDepartments(order []string, counts map[string]int, n int) []string {
	out := append([]string(nil), order...)
	sort.SliceStable(out, func(i, j int) bool { return counts[out[i]] > counts[out[j]] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func contentReason(c *course.Course, shared []string) string {
	if len(shared) == 0 {
		return fmt.Sprintf("in department %s, where you have taken courses", c.Dept())
	}
	if len(shared) > maxReasonKeywords {
		shared = shared[:maxReasonKeywords]
	}
	return fmt.Sprintf("covers topics you studied: %s", strings.Join(shared, ", "))
}
