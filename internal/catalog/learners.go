package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
)

// GetLearner loads a learner profile.
func (s *Store) GetLearner(ctx context.Context, id string) (learner.Learner, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return learner.Learner{}, domain.ErrLearnerNotFound
	}

	var rec LearnerRecord
	if err := s.db.WithContext(ctx).Where("id = ?", uid).First(&rec).Error; err != nil {
		return learner.Learner{}, fmt.Errorf("get learner %s: %w", id, notFound(err, domain.ErrLearnerNotFound))
	}
	return rec.ToDomain(), nil
}

// TakenCourses returns the course offerings a learner took, most recent first.
func (s *Store) TakenCourses(ctx context.Context, learnerID string) ([]course.Course, error) {
	uid, err := uuid.Parse(learnerID)
	if err != nil {
		return nil, domain.ErrLearnerNotFound
	}

	var recs []CourseRecord
	if err := s.db.WithContext(ctx).
		Table("courses").
		Select("courses.*").
		Joins("JOIN learner_courses lc ON lc.course_id = courses.id").
		Where("lc.learner_id = ?", uid).
		Order("lc.taken_at DESC").
		Order("courses.subject_number").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("taken courses: %w", err)
	}
	return toDomain(recs), nil
}

type peerOverlapRow struct {
	LearnerID uuid.UUID
	Overlap   int
}

// PeerOverlaps finds learners, other than learnerID and excluding those who opted out
// of collaborative matching, who took at least minOverlap of the given subject numbers.
// Ordered by overlap descending, then learner ID.
func (s *Store) PeerOverlaps(
	ctx context.Context, learnerID string, subjects []string, minOverlap int,
) ([]learner.PeerOverlap, error) {
	uid, err := uuid.Parse(learnerID)
	if err != nil {
		return nil, domain.ErrLearnerNotFound
	}
	keys := normalizeAll(subjects)
	if len(keys) == 0 {
		return []learner.PeerOverlap{}, nil
	}

	var rows []peerOverlapRow
	if err := s.db.WithContext(ctx).
		Table("learner_courses lc").
		Select("lc.learner_id AS learner_id, COUNT(DISTINCT lc.subject_number) AS overlap").
		Joins("JOIN learners l ON l.id = lc.learner_id").
		Where("lc.subject_number IN ?", keys).
		Where("lc.learner_id <> ?", uid).
		Where("l.opt_out_collaborative = ?", false).
		Group("lc.learner_id").
		Having("COUNT(DISTINCT lc.subject_number) >= ?", minOverlap).
		Order("overlap DESC").
		Order("lc.learner_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("peer overlaps: %w", err)
	}

	out := make([]learner.PeerOverlap, len(rows))
	for i, r := range rows {
		out[i] = learner.PeerOverlap{LearnerID: r.LearnerID.String(), Overlap: r.Overlap}
	}
	return out, nil
}

type peerCourseRow struct {
	LearnerID     uuid.UUID
	CourseID      uuid.UUID
	SubjectNumber string
}

// PeerCourses lists the course offerings taken by the given learners,
// grouped by learner in the order given and most recent first within a learner.
func (s *Store) PeerCourses(ctx context.Context, learnerIDs []string) ([]learner.PeerCourse, error) {
	uids := make([]uuid.UUID, 0, len(learnerIDs))
	for _, id := range learnerIDs {
		if uid, err := uuid.Parse(id); err == nil {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return []learner.PeerCourse{}, nil
	}

	var rows []peerCourseRow
	if err := s.db.WithContext(ctx).
		Table("learner_courses").
		Select("learner_id, course_id, subject_number").
		Where("learner_id IN ?", uids).
		Order("taken_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("peer courses: %w", err)
	}

	byLearner := make(map[uuid.UUID][]learner.PeerCourse, len(uids))
	for _, r := range rows {
		byLearner[r.LearnerID] = append(byLearner[r.LearnerID], learner.PeerCourse{
			LearnerID:     r.LearnerID.String(),
			CourseID:      r.CourseID.String(),
			SubjectNumber: r.SubjectNumber,
		})
	}
	out := make([]learner.PeerCourse, 0, len(rows))
	for _, uid := range uids {
		out = append(out, byLearner[uid]...)
	}
	return out, nil
}
