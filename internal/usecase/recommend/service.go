// Package recommend orchestrates the recommendation signal sources for one learner.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	"github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/metrics"
)

// Config holds orchestrator settings.
type Config struct {
	DefaultLimit       int
	MaxLimit           int
	MaxDepartmentBoost float64
	Exclusions         course.ExclusionPolicy
}

// Service fans out to signal sources and owns the log-and-degrade policy.
type Service struct {
	learners LearnerStore
	gate     Gate
	sources  map[recommendation.Strategy]Source
	cfg      Config
}

// New creates an orchestrator. gate may be nil to disable eligibility checks.
func New(
	learners LearnerStore, gate Gate, sources map[recommendation.Strategy]Source, cfg Config,
) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	return &Service{learners: learners, gate: gate, sources: sources, cfg: cfg}
}

// Recommend returns one labeled group per strategy in canonical order.
// With no strategies named, all are run and empty groups are dropped; named
// strategies always produce a group. Only a missing learner, a failed
// eligibility gate or invalid input fail the call; failing sources degrade
// to empty groups.
func (s *Service) Recommend(
	ctx context.Context, learnerID string, strategies []recommendation.Strategy, limit int,
) ([]recommendation.Group, error) {
	requested, explicit, err := s.resolveStrategies(strategies)
	if err != nil {
		return nil, err
	}
	limit, err = s.resolveLimit(limit)
	if err != nil {
		return nil, err
	}

	l, err := s.learners.GetLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}
	if s.gate != nil {
		if err := s.gate.Check(ctx, l.ID); err != nil {
			return nil, fmt.Errorf("eligibility: %w", err)
		}
	}
	taken, err := s.learners.TakenCourses(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("taken courses: %w", err)
	}

	req := NewRequest(l, taken, s.cfg.Exclusions, s.cfg.MaxDepartmentBoost)
	ctx = logger.WithFields(ctx, zap.String("learner_id", l.ID))

	groups := make([]recommendation.Group, len(requested))
	var g errgroup.Group
	for i, strategy := range requested {
		groups[i].Strategy = strategy
		g.Go(func() error {
			items, err := s.run(ctx, strategy, req, limit)
			groups[i].Items = items
			groups[i].Degraded = err != nil
			return nil
		})
	}
	_ = g.Wait()

	out := make([]recommendation.Group, 0, len(groups))
	for _, grp := range groups {
		if !explicit && len(grp.Items) == 0 {
			continue
		}
		out = append(out, grp)
	}
	return out, nil
}

// run invokes one source. Errors are logged and counted here and nowhere else;
// the caller only sees an empty list.
func (s *Service) run(
	ctx context.Context, strategy recommendation.Strategy, req *Request, limit int,
) ([]recommendation.Recommendation, error) {
	src, ok := s.sources[strategy]
	if !ok {
		return []recommendation.Recommendation{}, nil
	}

	started := time.Now()
	items, err := src.Recommend(ctx, req, limit)
	if err == nil {
		items = sanitize(items, req, limit)
	}
	metrics.ObserveSource(string(strategy), started, len(items), err)

	if err != nil {
		err = &domain.SourceError{Strategy: string(strategy), Err: err}
		logger.FromContext(ctx).Warn("Recommendation source degraded",
			zap.String("strategy", string(strategy)),
			zap.String("failure_kind", failureKind(err)),
			zap.Error(err))
		return []recommendation.Recommendation{}, err
	}
	return items, nil
}

// sanitize enforces the cross-source guarantees: no taken or excluded course
// and each logical course at most once, truncated to limit.
func sanitize(items []recommendation.Recommendation, req *Request, limit int) []recommendation.Recommendation {
	seen := make(course.TakenSet)
	out := make([]recommendation.Recommendation, 0, min(len(items), limit))
	for i := range items {
		c := items[i].Course()
		if !req.Allow(&c) || seen.Contains(&c) {
			continue
		}
		for _, id := range c.Identities() {
			seen[id] = struct{}{}
		}
		out = append(out, items[i])
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *Service) resolveStrategies(in []recommendation.Strategy) ([]recommendation.Strategy, bool, error) {
	if len(in) == 0 {
		return recommendation.AllStrategies(), false, nil
	}
	want := make(map[recommendation.Strategy]bool, len(in))
	for _, st := range in {
		if !st.IsValid() {
			return nil, false, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidRequest, st)
		}
		want[st] = true
	}
	out := make([]recommendation.Strategy, 0, len(want))
	for _, st := range recommendation.AllStrategies() {
		if want[st] {
			out = append(out, st)
		}
	}
	return out, true, nil
}

func (s *Service) resolveLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	case limit == 0:
		return s.cfg.DefaultLimit, nil
	case limit > s.cfg.MaxLimit:
		return s.cfg.MaxLimit, nil
	default:
		return limit, nil
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrSearchBackendUnavailable):
		return "search_backend_unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return db.FailureKind(err)
	}
}
