package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
)

// GetCourse loads one course offering by ID.
func (s *Store) GetCourse(ctx context.Context, id string) (course.Course, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return course.Course{}, domain.ErrCourseNotFound
	}

	var rec CourseRecord
	if err := s.db.WithContext(ctx).Where("id = ?", uid).First(&rec).Error; err != nil {
		return course.Course{}, fmt.Errorf("get course %s: %w", id, notFound(err, domain.ErrCourseNotFound))
	}
	return rec.ToDomain(), nil
}

// OfferedByIDs loads the offered courses among ids, in the order given.
// Unknown, malformed and unoffered IDs are skipped.
func (s *Store) OfferedByIDs(ctx context.Context, ids []string) ([]course.Course, error) {
	uids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if uid, err := uuid.Parse(id); err == nil {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return []course.Course{}, nil
	}

	var recs []CourseRecord
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND offered = ?", uids, true).
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("offered by ids: %w", err)
	}

	byID := make(map[string]course.Course, len(recs))
	for i := range recs {
		byID[recs[i].ID.String()] = recs[i].ToDomain()
	}
	out := make([]course.Course, 0, len(recs))
	for _, uid := range uids {
		if c, ok := byID[uid.String()]; ok {
			out = append(out, c)
			delete(byID, uid.String())
		}
	}
	return out, nil
}

// OfferedBySubjects loads offered courses whose canonical subject number is in subjects.
// Several offerings of the same subject may be returned; callers dedupe.
func (s *Store) OfferedBySubjects(ctx context.Context, subjects []string) ([]course.Course, error) {
	keys := normalizeAll(subjects)
	if len(keys) == 0 {
		return []course.Course{}, nil
	}

	var recs []CourseRecord
	if err := s.db.WithContext(ctx).
		Where("subject_number IN ? AND offered = ?", keys, true).
		Order("academic_year DESC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("offered by subjects: %w", err)
	}
	return toDomain(recs), nil
}

// OfferedRequiring is the coarse reverse lookup: offered courses whose requirement
// text contains subject anywhere. Matches are not token-exact; callers confirm them.
func (s *Store) OfferedRequiring(ctx context.Context, subject string) ([]course.Course, error) {
	key := course.NormalizeSubject(subject)
	if key == "" {
		return []course.Course{}, nil
	}
	pattern := "%" + escapeLike(key) + "%"

	var recs []CourseRecord
	if err := s.db.WithContext(ctx).
		Where("offered = ?", true).
		Where("(UPPER(prerequisites) LIKE ? ESCAPE '\\' OR UPPER(corequisites) LIKE ? ESCAPE '\\')", pattern, pattern).
		Order("academic_year DESC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("offered requiring %s: %w", key, err)
	}
	return toDomain(recs), nil
}

// OfferedInDepartments loads offered courses in the given departments.
func (s *Store) OfferedInDepartments(ctx context.Context, departments []string, limit int) ([]course.Course, error) {
	depts := normalizeAll(departments)
	if len(depts) == 0 {
		return []course.Course{}, nil
	}

	q := s.db.WithContext(ctx).
		Where("department IN ? AND offered = ?", depts, true).
		Order("academic_year DESC").
		Order("subject_number")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []CourseRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("offered in departments: %w", err)
	}
	return toDomain(recs), nil
}

// ListOffered pages through all offered courses ordered by ID.
// afterID is the last ID of the previous page, or empty for the first page.
func (s *Store) ListOffered(ctx context.Context, afterID string, limit int) ([]course.Course, error) {
	q := s.db.WithContext(ctx).Where("offered = ?", true).Order("id").Limit(limit)
	if afterID != "" {
		uid, err := uuid.Parse(afterID)
		if err != nil {
			return nil, fmt.Errorf("list offered: invalid cursor %q: %w", afterID, domain.ErrInvalidRequest)
		}
		q = q.Where("id > ?", uid)
	}

	var recs []CourseRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list offered: %w", err)
	}
	return toDomain(recs), nil
}

func toDomain(recs []CourseRecord) []course.Course {
	out := make([]course.Course, len(recs))
	for i := range recs {
		out[i] = recs[i].ToDomain()
	}
	return out
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := course.NormalizeSubject(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
