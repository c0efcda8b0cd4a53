// Package prereq extracts course-number tokens from free-text requirement strings.
package prereq

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/courserec/internal/domain/course"
)

// courseNumberRe matches "CC.801" / "HST.0301A" style numbers and "6.100A" / "18.06" style numbers.
var courseNumberRe = regexp.MustCompile(
	`(?i)\b(?:[A-Z]{1,4}\d*\.\d{1,4}[A-Z]?|\d{1,2}[A-Z]?\.\d{1,4}[A-Z]?)\b`,
)

// ExtractCourseNumbers returns the unique, uppercased course numbers found in text,
// in order of first appearance. Tokens are not validated against the catalog.
func ExtractCourseNumbers(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	matches := courseNumberRe.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		n := strings.ToUpper(m)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Mentions reports whether subject appears as a whole token in text.
func Mentions(text, subject string) bool {
	subject = course.NormalizeSubject(subject)
	if subject == "" {
		return false
	}
	for _, n := range ExtractCourseNumbers(text) {
		if n == subject {
			return true
		}
	}
	return false
}

// Requirements are the structured prerequisite and corequisite tokens of one course.
type Requirements struct {
	Prerequisites []string
	Corequisites  []string
}

// Parse extracts the requirement tokens of a course.
func Parse(c *course.Course) Requirements {
	return Requirements{
		Prerequisites: ExtractCourseNumbers(c.Prerequisites),
		Corequisites:  ExtractCourseNumbers(c.Corequisites),
	}
}

// All returns prerequisites followed by corequisites, without duplicates.
func (r Requirements) All() []string {
	out := make([]string, 0, len(r.Prerequisites)+len(r.Corequisites))
	seen := make(map[string]struct{}, cap(out))
	for _, group := range [][]string{r.Prerequisites, r.Corequisites} {
		for _, n := range group {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// Satisfaction describes which requirement groups a learner meets.
type Satisfaction struct {
	Prerequisites bool
	Corequisites  bool
}

// Evaluate checks the requirements against the learner's taken closure.
// Prerequisites need every listed course and are vacuously met when none are listed.
// Corequisites need at least one listed course and are not met when none are listed.
func (r Requirements) Evaluate(taken course.TakenSet) Satisfaction {
	s := Satisfaction{Prerequisites: true}
	for _, p := range r.Prerequisites {
		if !taken.Has(p) {
			s.Prerequisites = false
			break
		}
	}
	for _, c := range r.Corequisites {
		if taken.Has(c) {
			s.Corequisites = true
			break
		}
	}
	return s
}
