// Package similar finds courses related to a seed course by blending semantic
// similarity with the requirement graph.
package similar

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/usecase/fusion"
	"github.com/kailas-cloud/courserec/internal/usecase/graph"
)

// MethodHybrid labels blended semantic and structural results.
const MethodHybrid = "hybrid"

// Config holds similar-course settings.
type Config struct {
	DefaultLimit   int
	MaxLimit       int
	SemanticWeight float64
	GraphDepth     int
}

// Result is the similar-course response for one seed.
type Result struct {
	SeedCourseID     string
	SeedCourseLabel  string
	Recommendations  []recommendation.Recommendation
	Method           string
	SemanticWeight   float64
	StructuralWeight float64
}

// Service computes similar courses.
type Service struct {
	courses    CourseStore
	embeddings EmbeddingStore
	ranker     Ranker
	graph      GraphBuilder
	cfg        Config
}

// New creates a similar-course service.
func New(courses CourseStore, embeddings EmbeddingStore, ranker Ranker, g GraphBuilder, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.SemanticWeight <= 0 || cfg.SemanticWeight > 1 {
		cfg.SemanticWeight = 0.7
	}
	if cfg.GraphDepth <= 0 {
		cfg.GraphDepth = 2
	}
	return &Service{courses: courses, embeddings: embeddings, ranker: ranker, graph: g, cfg: cfg}
}

type candidate struct {
	course     course.Course
	semantic   float64
	structural float64
	relation   graph.Relation
	depth      int
}

// GetSimilarCourses scores candidates as w·semantic + (1−w)·structural, where the
// semantic score is the fused score normalized by the best hit and the structural
// score is 1/depth in the requirement graph. A nil semanticWeight uses the default.
// A seed without an embedding, or a failed search, leaves only structural candidates.
func (s *Service) GetSimilarCourses(
	ctx context.Context, seedID string, limit int, semanticWeight *float64,
) (Result, error) {
	w := s.cfg.SemanticWeight
	if semanticWeight != nil {
		w = *semanticWeight
	}
	if w < 0 || w > 1 {
		return Result{}, fmt.Errorf("%w: semantic weight must be in [0, 1], got %g", domain.ErrInvalidRequest, w)
	}
	switch {
	case limit < 0:
		return Result{}, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	case limit == 0:
		limit = s.cfg.DefaultLimit
	case limit > s.cfg.MaxLimit:
		limit = s.cfg.MaxLimit
	}

	seed, err := s.courses.GetCourse(ctx, seedID)
	if err != nil {
		return Result{}, fmt.Errorf("get seed course: %w", err)
	}
	ctx = logger.WithFields(ctx, zap.String("seed_course", seed.Key()))

	var order []string
	cands := make(map[string]*candidate)
	get := func(c *course.Course) *candidate {
		key := c.Key()
		if cd, ok := cands[key]; ok {
			return cd
		}
		cd := &candidate{course: *c}
		cands[key] = cd
		order = append(order, key)
		return cd
	}

	hits, err := s.semantic(ctx, &seed, limit)
	if err != nil {
		return Result{}, err
	}
	if len(hits) > 0 {
		best := hits[0].Score
		for i := range hits {
			if best > 0 {
				get(&hits[i].Course).semantic = hits[i].Score / best
			}
		}
	}

	g, err := s.graph.Materialize(ctx, &seed, s.cfg.GraphDepth)
	if err != nil {
		return Result{}, fmt.Errorf("requirement graph: %w", err)
	}
	for _, n := range g.Nodes() {
		cd := get(&n.Course)
		if sc := 1 / float64(n.Depth); sc > cd.structural {
			cd.structural = sc
			cd.relation = n.Relation
			cd.depth = n.Depth
		}
	}

	exclude := course.NewTakenSet([]course.Course{seed})
	recs := make([]recommendation.Recommendation, 0, len(order))
	for _, key := range order {
		cd := cands[key]
		if exclude.Contains(&cd.course) {
			continue
		}
		score := w*cd.semantic + (1-w)*cd.structural
		if score <= 0 {
			continue
		}
		recs = append(recs, recommendation.New(cd.course, score, reason(cd, &seed)))
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score() > recs[j].Score() })
	if len(recs) > limit {
		recs = recs[:limit]
	}

	return Result{
		SeedCourseID:     seed.ID,
		SeedCourseLabel:  seed.Label(),
		Recommendations:  recs,
		Method:           MethodHybrid,
		SemanticWeight:   w,
		StructuralWeight: 1 - w,
	}, nil
}

// semantic runs the fusion engine from the seed's description embedding.
func (s *Service) semantic(ctx context.Context, seed *course.Course, limit int) ([]fusion.Hit, error) {
	emb, err := s.embeddings.Get(ctx, seed.ID, domain.EmbeddingDescription)
	if errors.Is(err, domain.ErrEmbeddingMissing) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).Warn("Seed embedding unavailable", zap.Error(err))
		return nil, nil
	}

	ranking, err := s.ranker.Search(ctx, &fusion.Query{
		Vector:          emb.Embedding.Vector,
		Text:            seed.Title,
		Limit:           limit,
		Type:            domain.EmbeddingDescription,
		ExcludeSubjects: seed.Identities(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		logger.FromContext(ctx).Warn("Semantic candidates unavailable", zap.Error(err))
		return nil, nil
	}
	return ranking.Hits, nil
}

func reason(cd *candidate, seed *course.Course) string {
	switch {
	case cd.relation == graph.RelPrerequisite && cd.depth == 1:
		return "prerequisite of " + seed.Key()
	case cd.relation == graph.RelCorequisite && cd.depth == 1:
		return "corequisite of " + seed.Key()
	case cd.relation == graph.RelRequiredBy && cd.depth == 1:
		return "requires " + seed.Key()
	case cd.relation != "":
		return "related to " + seed.Key() + " through its requirements"
	default:
		return "similar in content to " + seed.Key()
	}
}
