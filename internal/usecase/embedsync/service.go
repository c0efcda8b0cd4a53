// Package embedsync backfills course embeddings out of band.
package embedsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/metrics"
)

// Outcome labels for one (course, type) pair.
const (
	OutcomeWritten = "written"
	OutcomeFresh   = "fresh"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Config holds backfill settings.
type Config struct {
	ModelID           string
	Types             []domain.EmbeddingType
	PageSize          int
	RequestsPerSecond float64
	Burst             int
	MaxReviewChars    int
}

// Stats counts outcomes of one run.
type Stats struct {
	Written int
	Fresh   int
	Skipped int
	Failed  int
}

func (s *Stats) add(outcome string) {
	switch outcome {
	case OutcomeWritten:
		s.Written++
	case OutcomeFresh:
		s.Fresh++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// Service regenerates missing and stale embeddings.
type Service struct {
	courses  CourseLister
	reviews  ReviewSource
	store    EmbeddingStore
	embedder domain.Embedder
	limiter  *rate.Limiter
	cfg      Config
	now      func() time.Time
}

// New creates a backfill service.
func New(
	courses CourseLister, reviews ReviewSource, store EmbeddingStore, embedder domain.Embedder, cfg Config,
) *Service {
	if len(cfg.Types) == 0 {
		cfg.Types = []domain.EmbeddingType{domain.EmbeddingDescription, domain.EmbeddingReviews}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxReviewChars <= 0 {
		cfg.MaxReviewChars = 8000
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Service{
		courses:  courses,
		reviews:  reviews,
		store:    store,
		embedder: embedder,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run walks every offered course once. Per-course failures are counted and
// logged; only listing errors, index errors, an exhausted token budget and
// cancellation stop the run.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	log := logger.FromContext(ctx)

	if err := s.store.EnsureIndex(ctx); err != nil {
		return stats, fmt.Errorf("ensure index: %w", err)
	}

	after := ""
	for {
		page, err := s.courses.ListOffered(ctx, after, s.cfg.PageSize)
		if err != nil {
			return stats, fmt.Errorf("list offered after %q: %w", after, err)
		}

		for i := range page {
			for _, t := range s.cfg.Types {
				outcome, err := s.syncOne(ctx, &page[i], t)
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
					stats.add(outcome)
					metrics.EmbeddingSyncTotal.WithLabelValues(string(t), outcome).Inc()
					return stats, fmt.Errorf("course %s: %w", page[i].ID, err)
				}
				if err != nil {
					log.Warn("Embedding sync failed",
						zap.String("course_id", page[i].ID),
						zap.String("subject_number", page[i].Key()),
						zap.String("type", string(t)),
						zap.Error(err))
				}
				stats.add(outcome)
				metrics.EmbeddingSyncTotal.WithLabelValues(string(t), outcome).Inc()
			}
		}

		if len(page) < s.cfg.PageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	log.Info("Embedding sync finished",
		zap.String("model", s.cfg.ModelID),
		zap.Int("written", stats.Written),
		zap.Int("fresh", stats.Fresh),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

func (s *Service) syncOne(ctx context.Context, c *course.Course, t domain.EmbeddingType) (string, error) {
	text, err := s.sourceText(ctx, c, t)
	if err != nil {
		return OutcomeFailed, err
	}
	if text == "" {
		// Nothing left to embed, e.g. every reviewer opted out.
		if err := s.store.Delete(ctx, c.ID, t); err != nil {
			return OutcomeFailed, fmt.Errorf("delete: %w", err)
		}
		return OutcomeSkipped, nil
	}

	existing, err := s.store.Get(ctx, c.ID, t)
	switch {
	case err == nil:
		if !existing.Embedding.IsStale(s.cfg.ModelID) && existing.SourceText == text {
			return OutcomeFresh, nil
		}
	case !errors.Is(err, domain.ErrEmbeddingMissing):
		return OutcomeFailed, fmt.Errorf("get: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return OutcomeFailed, fmt.Errorf("rate limit: %w", err)
	}
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("embed: %w", err)
	}

	emb := domain.CourseEmbedding{
		CourseID:      c.ID,
		SubjectNumber: c.Key(),
		Department:    c.Dept(),
		Title:         c.Title,
		Type:          t,
		SourceText:    text,
		Embedding: domain.VersionedEmbedding{
			Vector:      res.Embedding,
			ModelID:     s.cfg.ModelID,
			GeneratedAt: s.now().UTC(),
		},
	}
	if err := s.store.Upsert(ctx, []domain.CourseEmbedding{emb}); err != nil {
		return OutcomeFailed, fmt.Errorf("upsert: %w", err)
	}
	return OutcomeWritten, nil
}

// sourceText builds the text embedded for one type; empty means no embedding.
func (s *Service) sourceText(ctx context.Context, c *course.Course, t domain.EmbeddingType) (string, error) {
	switch t {
	case domain.EmbeddingDescription:
		desc := strings.TrimSpace(c.Description)
		if desc == "" {
			return "", nil
		}
		return joinNonEmpty("\n\n", c.Title, desc), nil
	case domain.EmbeddingContent:
		return joinNonEmpty("\n\n", c.Title, c.Description,
			prefixed("Prerequisites: ", c.Prerequisites),
			prefixed("Corequisites: ", c.Corequisites)), nil
	case domain.EmbeddingReviews:
		texts, err := s.reviews.ReviewTexts(ctx, c.Key())
		if err != nil {
			return "", fmt.Errorf("review texts: %w", err)
		}
		return truncateRunes(strings.Join(texts, "\n"), s.cfg.MaxReviewChars), nil
	default:
		return "", fmt.Errorf("%w: unknown embedding type %q", domain.ErrInvalidRequest, t)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func prefixed(prefix, s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return prefix + s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
