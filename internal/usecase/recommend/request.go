package recommend

import (
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
)

// Request is the immutable per-request context shared by every signal source.
// It is built once by the orchestrator and only read afterwards.
type Request struct {
	Learner learner.Learner
	// Taken holds the learner's course offerings, most recent first.
	Taken []course.Course
	// TakenSet is the closure of taken subject numbers and their aliases.
	TakenSet course.TakenSet
	// DepartmentBoost maps a department prefix to a boost fraction.
	DepartmentBoost map[string]float64

	filter course.Filter
}

// NewRequest builds the request context for one learner.
func NewRequest(l learner.Learner, taken []course.Course, policy course.ExclusionPolicy, maxBoost float64) *Request {
	set := course.NewTakenSet(taken)
	return &Request{
		Learner:         l,
		Taken:           taken,
		TakenSet:        set,
		DepartmentBoost: departmentBoost(l.Departments(), taken, maxBoost),
		filter:          course.Filter{Taken: set, Policy: policy},
	}
}

// Allow reports whether a candidate may be recommended: it has a subject number,
// was not taken under any identity, and is not structurally excluded.
func (r *Request) Allow(c *course.Course) bool {
	return r.filter.Allow(c)
}

// HasHistory reports whether the learner has taken anything.
func (r *Request) HasHistory() bool { return len(r.Taken) > 0 }

// departmentBoost scales each department by its share of the learner's distinct
// taken subjects; declared programs always get the full boost.
func departmentBoost(programs []string, taken []course.Course, maxBoost float64) map[string]float64 {
	boost := make(map[string]float64)
	if maxBoost <= 0 {
		return boost
	}

	distinct := course.Dedupe(taken)
	if len(distinct) > 0 {
		counts := make(map[string]int)
		for i := range distinct {
			counts[course.DepartmentPrefix(distinct[i].SubjectNumber)]++
		}
		for dept, n := range counts {
			boost[dept] = maxBoost * float64(n) / float64(len(distinct))
		}
	}
	for _, p := range programs {
		boost[p] = maxBoost
	}
	return boost
}
