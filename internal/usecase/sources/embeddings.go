package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/usecase/fusion"
	"github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

// Embeddings recommends courses semantically and lexically close to the
// learner's most recent courses, through the rank fusion engine.
type Embeddings struct {
	embeddings EmbeddingStore
	courses    SubjectResolver
	ranker     Ranker
	seeds      int
}

// NewEmbeddings creates the embeddings source. seeds bounds how many recent courses are searched from.
func NewEmbeddings(embeddings EmbeddingStore, courses SubjectResolver, ranker Ranker, seeds int) *Embeddings {
	if seeds <= 0 {
		seeds = 3
	}
	return &Embeddings{embeddings: embeddings, courses: courses, ranker: ranker, seeds: seeds}
}

type seed struct {
	course course.Course
	vector []float32
}

// Recommend searches from each seed and keeps the best score per course.
// The index only filters out the seed itself; the rest of the taken history
// is dropped by finish, which keeps the filter small for long histories.
// Courses without a stored embedding give no signal. The source fails only
// when every seed search fails.
func (s *Embeddings) Recommend(
	ctx context.Context, req *recommend.Request, limit int,
) ([]recommendation.Recommendation, error) {
	if !req.HasHistory() || limit <= 0 {
		return []recommendation.Recommendation{}, nil
	}

	seeds, err := s.pickSeeds(ctx, course.Dedupe(req.Taken))
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return []recommendation.Recommendation{}, nil
	}

	rankings := make([]fusion.Ranking, len(seeds))
	errs := make([]error, len(seeds))
	var g errgroup.Group
	for i := range seeds {
		g.Go(func() error {
			rankings[i], errs[i] = s.ranker.Search(ctx, &fusion.Query{
				Vector:          seeds[i].vector,
				Text:            seeds[i].course.Title,
				Limit:           limit,
				Type:            domain.EmbeddingDescription,
				ExcludeSubjects: seeds[i].course.Identities(),
				DepartmentBoost: req.DepartmentBoost,
			})
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(seeds) {
		return nil, fmt.Errorf("seed search: %w", errors.Join(errs...))
	}

	return finish(req, merge(seeds, rankings, errs), limit), nil
}

// pickSeeds returns the most recent taken courses that have a description embedding,
// looked up on the offering taken and then on the subject's current offering.
func (s *Embeddings) pickSeeds(ctx context.Context, taken []course.Course) ([]seed, error) {
	subjects := make([]string, len(taken))
	for i := range taken {
		subjects[i] = taken[i].Key()
	}
	live, err := resolveSubjects(ctx, s.courses, subjects)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, 2*len(taken))
	for i := range taken {
		ids = append(ids, taken[i].ID)
		if c, ok := live[taken[i].Key()]; ok && c.ID != taken[i].ID {
			ids = append(ids, c.ID)
		}
	}
	embs, err := s.embeddings.GetMany(ctx, ids, domain.EmbeddingDescription)
	if err != nil {
		return nil, fmt.Errorf("seed embeddings: %w", err)
	}

	out := make([]seed, 0, s.seeds)
	for i := range taken {
		e, ok := embs[taken[i].ID]
		if !ok {
			if c, found := live[taken[i].Key()]; found {
				e, ok = embs[c.ID]
			}
		}
		if !ok {
			continue
		}
		out = append(out, seed{course: taken[i], vector: e.Embedding.Vector})
		if len(out) == s.seeds {
			break
		}
	}
	return out, nil
}

// merge keeps each course's best hit across seeds, ordered by score.
func merge(seeds []seed, rankings []fusion.Ranking, errs []error) []recommendation.Recommendation {
	recs := make([]recommendation.Recommendation, 0)
	index := make(map[string]int)
	for i := range rankings {
		if errs[i] != nil {
			continue
		}
		for _, h := range rankings[i].Hits {
			reason := "similar to " + seeds[i].course.Label()
			key := h.Course.Key()
			if j, ok := index[key]; ok {
				if h.Score > recs[j].Score() {
					recs[j] = recommendation.New(h.Course, h.Score, reason)
				}
				continue
			}
			index[key] = len(recs)
			recs = append(recs, recommendation.New(h.Course, h.Score, reason))
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score() > recs[j].Score() })
	return recs
}
