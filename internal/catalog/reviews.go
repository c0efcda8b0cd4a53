package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
)

// RatingAggregates groups reviews by subject number for courses in the given departments.
// Reviews written by learners who opted out of review usage are ignored.
// Ordering is left to the caller.
func (s *Store) RatingAggregates(ctx context.Context, departments []string) ([]course.RatingAggregate, error) {
	depts := make([]string, 0, len(departments))
	for _, d := range departments {
		if d = strings.ToUpper(strings.TrimSpace(d)); d != "" {
			depts = append(depts, d)
		}
	}
	if len(depts) == 0 {
		return []course.RatingAggregate{}, nil
	}

	var rows []course.RatingAggregate
	if err := s.db.WithContext(ctx).
		Table("reviews r").
		Select("r.subject_number AS subject_number, AVG(r.rating) AS avg_rating, COUNT(*) AS review_count").
		Joins("JOIN courses c ON c.id = r.course_id").
		Joins("JOIN learners l ON l.id = r.learner_id").
		Where("c.department IN ?", depts).
		Where("l.opt_out_reviews = ?", false).
		Group("r.subject_number").
		Order("r.subject_number").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("rating aggregates: %w", err)
	}
	return rows, nil
}

// ReviewStats returns how many of a learner's taken subjects carry a review by that learner.
func (s *Store) ReviewStats(ctx context.Context, learnerID string) (learner.ReviewStats, error) {
	uid, err := uuid.Parse(learnerID)
	if err != nil {
		return learner.ReviewStats{}, domain.ErrLearnerNotFound
	}

	var taken int64
	if err := s.db.WithContext(ctx).
		Model(&LearnerCourse{}).
		Where("learner_id = ?", uid).
		Distinct("subject_number").
		Count(&taken).Error; err != nil {
		return learner.ReviewStats{}, fmt.Errorf("count taken: %w", err)
	}

	var reviewed int64
	if err := s.db.WithContext(ctx).
		Model(&Review{}).
		Where("learner_id = ?", uid).
		Where("subject_number IN (?)", s.db.Model(&LearnerCourse{}).
			Select("subject_number").
			Where("learner_id = ?", uid)).
		Distinct("subject_number").
		Count(&reviewed).Error; err != nil {
		return learner.ReviewStats{}, fmt.Errorf("count reviewed: %w", err)
	}

	return learner.ReviewStats{Reviewed: int(reviewed), Taken: int(taken)}, nil
}

// LatestReviewAt returns the time of the learner's most recent review.
// ok is false when the learner has never written one.
func (s *Store) LatestReviewAt(ctx context.Context, learnerID string) (at time.Time, ok bool, err error) {
	uid, err := uuid.Parse(learnerID)
	if err != nil {
		return time.Time{}, false, domain.ErrLearnerNotFound
	}

	var rec Review
	res := s.db.WithContext(ctx).
		Where("learner_id = ?", uid).
		Order("created_at DESC").
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return time.Time{}, false, fmt.Errorf("latest review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, false, nil
	}
	return rec.CreatedAt, true, nil
}

// ReviewTexts returns the non-empty review texts of a subject number, oldest first,
// excluding reviewers who opted out of review usage.
func (s *Store) ReviewTexts(ctx context.Context, subject string) ([]string, error) {
	key := course.NormalizeSubject(subject)
	if key == "" {
		return []string{}, nil
	}

	var texts []sql.NullString
	if err := s.db.WithContext(ctx).
		Table("reviews r").
		Joins("JOIN learners l ON l.id = r.learner_id").
		Where("r.subject_number = ?", key).
		Where("l.opt_out_reviews = ?", false).
		Order("r.created_at").
		Order("r.id").
		Pluck("r.text", &texts).Error; err != nil {
		return nil, fmt.Errorf("review texts: %w", err)
	}

	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if v := strings.TrimSpace(t.String); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
