// Package eligibility implements the data-contribution gate in front of recommendations.
package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
)

// Store reads a learner's review activity.
type Store interface {
	ReviewStats(ctx context.Context, learnerID string) (learner.ReviewStats, error)
	LatestReviewAt(ctx context.Context, learnerID string) (time.Time, bool, error)
}

// Config holds the gate thresholds.
type Config struct {
	RecentWindow   time.Duration
	MinReviewShare float64
}

// ShareResult is the outcome of the review share criterion.
type ShareResult struct {
	Eligible bool
	Stats    learner.ReviewStats
	Required float64
}

// Service evaluates eligibility criteria.
type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// New creates an eligibility service.
func New(store Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// HasRecentContribution reports whether the learner reviewed a course within the window.
func (s *Service) HasRecentContribution(ctx context.Context, learnerID string) (bool, error) {
	at, ok, err := s.store.LatestReviewAt(ctx, learnerID)
	if err != nil {
		return false, fmt.Errorf("latest review: %w", err)
	}
	if !ok {
		return false, nil
	}
	return !at.Before(s.now().Add(-s.cfg.RecentWindow)), nil
}

// HasMinimumReviewShare reports whether the learner reviewed enough of the courses they took.
func (s *Service) HasMinimumReviewShare(ctx context.Context, learnerID string) (ShareResult, error) {
	stats, err := s.store.ReviewStats(ctx, learnerID)
	if err != nil {
		return ShareResult{}, fmt.Errorf("review stats: %w", err)
	}
	return ShareResult{
		Eligible: stats.Share() >= s.cfg.MinReviewShare,
		Stats:    stats,
		Required: s.cfg.MinReviewShare,
	}, nil
}

// Check runs both criteria in order and returns a *domain.NotEligibleError for the first that fails.
func (s *Service) Check(ctx context.Context, learnerID string) error {
	recent, err := s.HasRecentContribution(ctx, learnerID)
	if err != nil {
		return err
	}
	if !recent {
		return domain.NewNotEligible(domain.CriterionRecentContribution, 0, 1)
	}

	share, err := s.HasMinimumReviewShare(ctx, learnerID)
	if err != nil {
		return err
	}
	if !share.Eligible {
		return domain.NewNotEligible(domain.CriterionReviewShare, share.Stats.Share(), share.Required)
	}
	return nil
}
