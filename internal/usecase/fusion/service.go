// Package fusion ranks courses by fusing vector and keyword search over course embeddings.
package fusion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/search/filter"
	"github.com/kailas-cloud/courserec/internal/domain/search/result"
	"github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/metrics"
)

// Method names how the returned ranking was produced.
type Method string

// Ranking methods.
const (
	MethodHybrid Method = "hybrid"
	MethodVector Method = "vector"
)

const reasonBreakerOpen = "breaker_open"

// Index fields the fusion filters on.
const (
	embeddingTypeField = "embedding_type"
	subjectNumberField = "subject_number"
)

// Config holds fusion parameters.
type Config struct {
	Weights             Weights
	CandidateMultiplier int
	MaxDepartmentBoost  float64
	Breaker             BreakerConfig
}

// BreakerConfig configures the circuit breaker around the hybrid call.
type BreakerConfig struct {
	MaxFailures uint32
	Open        time.Duration
	Interval    time.Duration
}

// Query is one fused search request.
type Query struct {
	Vector []float32
	Text   string
	Limit  int
	// Type restricts hits to one embedding type; empty searches all types.
	Type domain.EmbeddingType
	// ExcludeSubjects are subject numbers never returned, e.g. the seed course itself.
	ExcludeSubjects []string
	// DepartmentBoost maps a department prefix to a boost fraction in [0, 0.5].
	DepartmentBoost map[string]float64
}

// Hit is a resolved, live course with its fused score.
type Hit struct {
	Course  course.Course
	Score   float64
	Snippet string
}

// Ranking is the outcome of one fused search.
type Ranking struct {
	Hits   []Hit
	Method Method
}

// Service implements weighted reciprocal rank fusion with a single vector-only fallback.
type Service struct {
	search  Searcher
	courses CourseResolver
	cfg     Config
	breaker *gobreaker.CircuitBreaker[[]result.Result]
}

// New creates a fusion service.
func New(search Searcher, courses CourseResolver, cfg Config) *Service {
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = 3
	}
	if cfg.Breaker.MaxFailures == 0 {
		cfg.Breaker.MaxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:     "hybrid-search",
		Interval: cfg.Breaker.Interval,
		Timeout:  cfg.Breaker.Open,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about backend health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Service{
		search:  search,
		courses: courses,
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker[[]result.Result](settings),
	}
}

// Search returns up to q.Limit live courses ranked by fused, department-boosted score.
// A failed hybrid call falls back to a vector-only search exactly once; when that fails
// too the error wraps domain.ErrSearchBackendUnavailable.
func (s *Service) Search(ctx context.Context, q *Query) (Ranking, error) {
	if len(q.Vector) == 0 {
		return Ranking{}, fmt.Errorf("%w: query vector is required", domain.ErrInvalidRequest)
	}
	if q.Limit <= 0 {
		return Ranking{Hits: []Hit{}, Method: MethodHybrid}, nil
	}

	filters, err := buildFilters(q)
	if err != nil {
		return Ranking{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	candidates := q.Limit * s.cfg.CandidateMultiplier

	method := MethodHybrid
	fused, err := s.breaker.Execute(func() ([]result.Result, error) {
		return s.hybrid(ctx, q, filters, candidates)
	})
	if err != nil {
		if ctx.Err() != nil {
			return Ranking{}, fmt.Errorf("hybrid search: %w", ctx.Err())
		}
		reason := fallbackReason(err)
		metrics.FusionFallbackTotal.WithLabelValues(reason).Inc()
		logger.FromContext(ctx).Warn("Hybrid search failed, falling back to vector-only",
			zap.String("failure_kind", reason), zap.Error(err))

		method = MethodVector
		knn, ferr := s.search.SearchKNN(ctx, q.Vector, filters, candidates)
		if ferr != nil {
			return Ranking{}, fmt.Errorf("%w: hybrid: %w; vector: %w",
				domain.ErrSearchBackendUnavailable, err, ferr)
		}
		fused = fuseRRF(knn, nil, s.cfg.Weights)
	}

	if len(fused) > 2*q.Limit {
		fused = fused[:2*q.Limit]
	}

	hits, err := s.resolve(ctx, fused, q.ExcludeSubjects)
	if err != nil {
		return Ranking{}, err
	}

	applyDepartmentBoost(hits, q.DepartmentBoost, s.cfg.MaxDepartmentBoost)
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return Ranking{Hits: hits, Method: method}, nil
}

// hybrid runs both legs concurrently and fuses them.
// Without query text only the vector leg runs.
func (s *Service) hybrid(
	ctx context.Context, q *Query, filters filter.Expression, candidates int,
) ([]result.Result, error) {
	var knn, bm25 []result.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		knn, err = s.search.SearchKNN(gctx, q.Vector, filters, candidates)
		if err != nil {
			return fmt.Errorf("knn: %w", err)
		}
		return nil
	})
	if q.Text != "" {
		g.Go(func() error {
			var err error
			bm25, err = s.search.SearchBM25(gctx, q.Text, filters, candidates)
			if err != nil {
				return fmt.Errorf("bm25: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fuseRRF(knn, bm25, s.cfg.Weights), nil
}

// resolve maps fused hits to offered course records, keeping fused order.
// Hits whose course is gone or no longer offered are dropped, as are repeated
// identities (another offering or another embedding type of the same course).
func (s *Service) resolve(ctx context.Context, fused []result.Result, exclude []string) ([]Hit, error) {
	if len(fused) == 0 {
		return []Hit{}, nil
	}

	ids := make([]string, 0, len(fused))
	for i := range fused {
		ids = append(ids, fused[i].CourseID())
	}
	live, err := s.courses.OfferedByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve courses: %w", err)
	}
	byID := make(map[string]course.Course, len(live))
	for _, c := range live {
		byID[c.ID] = c
	}

	seen := course.NewTakenSet(nil)
	for _, subj := range exclude {
		if n := course.NormalizeSubject(subj); n != "" {
			seen[n] = struct{}{}
		}
	}

	hits := make([]Hit, 0, len(fused))
	for i := range fused {
		c, ok := byID[fused[i].CourseID()]
		if !ok || c.Key() == "" || seen.Contains(&c) {
			continue
		}
		for _, id := range c.Identities() {
			seen[id] = struct{}{}
		}
		hits = append(hits, Hit{Course: c, Score: fused[i].Score(), Snippet: fused[i].Snippet()})
	}
	return hits, nil
}

// applyDepartmentBoost multiplies each score by 1+boost of its department prefix,
// then re-sorts. Boosts are clamped to [0, maxBoost].
func applyDepartmentBoost(hits []Hit, boost map[string]float64, maxBoost float64) {
	if len(boost) == 0 {
		return
	}
	for i := range hits {
		b := boost[course.DepartmentPrefix(hits[i].Course.SubjectNumber)]
		hits[i].Score *= 1 + clamp(b, 0, maxBoost)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
}

func clamp(v, lo, hi float64) float64 {
	if hi <= 0 {
		hi = 0.5
	}
	return max(lo, min(v, hi))
}

func buildFilters(q *Query) (filter.Expression, error) {
	var b filter.Builder
	b.Must(embeddingTypeField, string(q.Type))
	for _, subj := range q.ExcludeSubjects {
		b.MustNot(subjectNumberField, course.NormalizeSubject(subj))
	}
	return b.Build()
}

func fallbackReason(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return reasonBreakerOpen
	}
	return db.FailureKind(err)
}
