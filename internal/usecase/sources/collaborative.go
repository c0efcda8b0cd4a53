package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

// overlapScale turns a peer's overlap size into its vote weight.
const overlapScale = 10.0

// Collaborative recommends courses taken by learners whose history overlaps the target's.
type Collaborative struct {
	peers      PeerStore
	courses    SubjectResolver
	minOverlap int
}

// NewCollaborative creates the collaborative filtering source.
func NewCollaborative(peers PeerStore, courses SubjectResolver, minOverlap int) *Collaborative {
	if minOverlap <= 0 {
		minOverlap = 3
	}
	return &Collaborative{peers: peers, courses: courses, minOverlap: minOverlap}
}

type tally struct {
	subject string
	score   float64
	peers   int
}

// Recommend scores each candidate subject by the summed overlap/10 of the peers who took it.
func (s *Collaborative) Recommend(
	ctx context.Context, req *recommend.Request, limit int,
) ([]recommendation.Recommendation, error) {
	if !req.HasHistory() || limit <= 0 {
		return []recommendation.Recommendation{}, nil
	}

	overlaps, err := s.peers.PeerOverlaps(ctx, req.Learner.ID, sortedKeys(req.TakenSet), s.minOverlap)
	if err != nil {
		return nil, fmt.Errorf("peer overlaps: %w", err)
	}
	if len(overlaps) == 0 {
		return []recommendation.Recommendation{}, nil
	}

	weight := make(map[string]float64, len(overlaps))
	ids := make([]string, len(overlaps))
	for i, p := range overlaps {
		weight[p.LearnerID] = float64(p.Overlap) / overlapScale
		ids[i] = p.LearnerID
	}

	taken, err := s.peers.PeerCourses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("peer courses: %w", err)
	}

	tallies := make([]*tally, 0)
	bySubject := make(map[string]*tally)
	voted := make(map[[2]string]struct{}, len(taken))
	for _, pc := range taken {
		if pc.SubjectNumber == "" || req.TakenSet.Has(pc.SubjectNumber) {
			continue
		}
		vote := [2]string{pc.LearnerID, pc.SubjectNumber}
		if _, ok := voted[vote]; ok {
			continue
		}
		voted[vote] = struct{}{}

		t, ok := bySubject[pc.SubjectNumber]
		if !ok {
			t = &tally{subject: pc.SubjectNumber}
			bySubject[pc.SubjectNumber] = t
			tallies = append(tallies, t)
		}
		t.score += weight[pc.LearnerID]
		t.peers++
	}
	sort.SliceStable(tallies, func(i, j int) bool { return tallies[i].score > tallies[j].score })

	subjects := make([]string, len(tallies))
	for i, t := range tallies {
		subjects[i] = t.subject
	}
	live, err := resolveSubjects(ctx, s.courses, subjects)
	if err != nil {
		return nil, err
	}

	recs := make([]recommendation.Recommendation, 0, len(tallies))
	for _, t := range tallies {
		c, ok := live[t.subject]
		if !ok {
			continue
		}
		reason := fmt.Sprintf("taken by %d %s with a similar course history",
			t.peers, plural(t.peers, "learner", "learners"))
		recs = append(recs, recommendation.New(c, t.score, reason))
	}
	return finish(req, recs, limit), nil
}
