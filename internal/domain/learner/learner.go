// Package learner holds the learner profile consumed by the recommendation pipeline.
package learner

import "strings"

// Learner is a platform user with declared programs and data-use preferences.
type Learner struct {
	ID       string
	Programs []string // declared department codes, e.g. "6", "18"

	// OptOutCollaborative hides the learner's course history from peer matching.
	OptOutCollaborative bool
	// OptOutReviews excludes the learner's reviews from aggregates and review embeddings.
	OptOutReviews bool
}

// Departments returns the normalized, de-duplicated program department codes.
func (l *Learner) Departments() []string {
	out := make([]string, 0, len(l.Programs))
	seen := make(map[string]struct{}, len(l.Programs))
	for _, p := range l.Programs {
		d := strings.ToUpper(strings.TrimSpace(p))
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// PeerOverlap is another learner and the number of canonical subject numbers
// they share with the target learner.
type PeerOverlap struct {
	LearnerID string
	Overlap   int
}

// PeerCourse is one course offering a peer took.
type PeerCourse struct {
	LearnerID     string
	CourseID      string
	SubjectNumber string
}

// ReviewStats counts the distinct subjects a learner took and reviewed.
type ReviewStats struct {
	Reviewed int
	Taken    int
}

// Share returns the reviewed fraction of taken subjects, 0 when nothing was taken.
func (s ReviewStats) Share() float64 {
	if s.Taken == 0 {
		return 0
	}
	return float64(s.Reviewed) / float64(s.Taken)
}
