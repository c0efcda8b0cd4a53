package course

import "strings"

// Dedupe collapses offerings that share a canonical subject number into one record.
// The most recently offered record (highest academic year) wins; on equal years the
// earlier record in the input wins. Records without a subject number are dropped.
// Output order follows the first appearance of each subject number.
func Dedupe(records []Course) []Course {
	index := make(map[string]int, len(records))
	out := make([]Course, 0, len(records))

	for _, r := range records {
		key := r.Key()
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, r)
			continue
		}
		if r.AcademicYear > out[i].AcademicYear {
			out[i] = r
		}
	}

	return out
}

// TakenSet is the closure of subject numbers a learner has satisfied:
// canonical numbers of taken courses plus all of their aliases.
type TakenSet map[string]struct{}

// NewTakenSet builds the closure from the learner's taken course records.
func NewTakenSet(taken []Course) TakenSet {
	s := make(TakenSet, len(taken)*2)
	for i := range taken {
		for _, id := range taken[i].Identities() {
			s[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether a subject number is in the closure.
func (s TakenSet) Has(subject string) bool {
	_, ok := s[NormalizeSubject(subject)]
	return ok
}

// Contains reports whether the course was already taken under any of its identities.
func (s TakenSet) Contains(c *Course) bool {
	for _, id := range c.Identities() {
		if _, ok := s[id]; ok {
			return true
		}
	}
	return false
}

// ExclusionPolicy removes structural categories that are never worth recommending.
type ExclusionPolicy struct {
	reservedSuffixes []string
	foundational     map[string]struct{}
}

// NewExclusionPolicy builds a policy from reserved independent-study suffixes and
// a blocklist of foundational subject numbers.
func NewExclusionPolicy(reservedSuffixes, foundational []string) ExclusionPolicy {
	p := ExclusionPolicy{
		reservedSuffixes: make([]string, 0, len(reservedSuffixes)),
		foundational:     make(map[string]struct{}, len(foundational)),
	}
	for _, s := range reservedSuffixes {
		if n := NormalizeSubject(s); n != "" {
			p.reservedSuffixes = append(p.reservedSuffixes, n)
		}
	}
	for _, f := range foundational {
		if n := NormalizeSubject(f); n != "" {
			p.foundational[n] = struct{}{}
		}
	}
	return p
}

// Excluded reports whether the course is independent study or foundational.
func (p ExclusionPolicy) Excluded(c *Course) bool {
	key := c.Key()
	for _, suffix := range p.reservedSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	for _, id := range c.Identities() {
		if _, ok := p.foundational[id]; ok {
			return true
		}
	}
	return false
}

// Filter keeps the course when it has a subject number, is not taken and not excluded.
type Filter struct {
	Taken  TakenSet
	Policy ExclusionPolicy
}

// Allow applies the taken and exclusion rules to one candidate.
func (f Filter) Allow(c *Course) bool {
	if c.Key() == "" {
		return false
	}
	if f.Taken.Contains(c) {
		return false
	}
	return !f.Policy.Excluded(c)
}
