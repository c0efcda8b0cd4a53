// Package course holds the course entity and the identity rules that map
// per-term offerings and cross-listings onto one logical course.
package course

import "strings"

// Course is one stored offering of a logical course.
type Course struct {
	ID            string
	SubjectNumber string
	Aliases       []string
	Department    string
	Title         string
	Description   string
	Prerequisites string
	Corequisites  string
	Offered       bool
	AcademicYear  int
	Term          string
}

// NormalizeSubject returns the canonical spelling of a subject number.
func NormalizeSubject(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DepartmentPrefix returns the part of a subject number before the first dot.
func DepartmentPrefix(subject string) string {
	subject = NormalizeSubject(subject)
	if i := strings.IndexByte(subject, '.'); i >= 0 {
		return subject[:i]
	}
	return subject
}

// Key returns the normalized canonical subject number.
func (c *Course) Key() string { return NormalizeSubject(c.SubjectNumber) }

// Dept returns the stored department or, if empty, the subject number prefix.
func (c *Course) Dept() string {
	if d := strings.TrimSpace(c.Department); d != "" {
		return strings.ToUpper(d)
	}
	return DepartmentPrefix(c.SubjectNumber)
}

// Identities returns the canonical subject number followed by all aliases, normalized.
func (c *Course) Identities() []string {
	out := make([]string, 0, 1+len(c.Aliases))
	if k := c.Key(); k != "" {
		out = append(out, k)
	}
	for _, a := range c.Aliases {
		if n := NormalizeSubject(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Label is the human-readable "<subject>: <title>" form.
func (c *Course) Label() string {
	if c.Title == "" {
		return c.Key()
	}
	return c.Key() + ": " + c.Title
}

// RatingAggregate summarizes the reviews of one subject number.
type RatingAggregate struct {
	SubjectNumber string
	AvgRating     float64
	ReviewCount   int
}
