package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/learner"
)

// CourseRecord is one stored offering of a course.
type CourseRecord struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	SubjectNumber string                      `gorm:"column:subject_number;not null;index"`
	Aliases       datatypes.JSONSlice[string] `gorm:"column:aliases"`
	Department    string                      `gorm:"column:department;index"`
	Title         string                      `gorm:"column:title"`
	Description   string                      `gorm:"column:description"`
	Prerequisites string                      `gorm:"column:prerequisites"`
	Corequisites  string                      `gorm:"column:corequisites"`
	Offered       bool                        `gorm:"column:offered;not null;index"`
	AcademicYear  int                         `gorm:"column:academic_year"`
	Term          string                      `gorm:"column:term"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CourseRecord) TableName() string { return "courses" }

// BeforeSave normalizes identifiers so store-side lookups can compare exactly.
func (c *CourseRecord) BeforeSave(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.SubjectNumber = course.NormalizeSubject(c.SubjectNumber)
	for i, a := range c.Aliases {
		c.Aliases[i] = course.NormalizeSubject(a)
	}
	c.Department = strings.ToUpper(strings.TrimSpace(c.Department))
	if c.Department == "" {
		c.Department = course.DepartmentPrefix(c.SubjectNumber)
	}
	return nil
}

// ToDomain converts the record into the domain course.
func (c *CourseRecord) ToDomain() course.Course {
	return course.Course{
		ID:            c.ID.String(),
		SubjectNumber: c.SubjectNumber,
		Aliases:       append([]string(nil), c.Aliases...),
		Department:    c.Department,
		Title:         c.Title,
		Description:   c.Description,
		Prerequisites: c.Prerequisites,
		Corequisites:  c.Corequisites,
		Offered:       c.Offered,
		AcademicYear:  c.AcademicYear,
		Term:          c.Term,
	}
}

// LearnerRecord is a platform user's recommendation profile.
type LearnerRecord struct {
	ID                  uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Programs            datatypes.JSONSlice[string] `gorm:"column:programs"`
	OptOutCollaborative bool                        `gorm:"column:opt_out_collaborative;not null;default:false"`
	OptOutReviews       bool                        `gorm:"column:opt_out_reviews;not null;default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (LearnerRecord) TableName() string { return "learners" }

func (l *LearnerRecord) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ToDomain converts the record into the domain learner.
func (l *LearnerRecord) ToDomain() learner.Learner {
	return learner.Learner{
		ID:                  l.ID.String(),
		Programs:            append([]string(nil), l.Programs...),
		OptOutCollaborative: l.OptOutCollaborative,
		OptOutReviews:       l.OptOutReviews,
	}
}

// LearnerCourse records that a learner took a course offering.
// SubjectNumber is the offering's canonical number, copied on write so that
// overlap counting can group on it without a join.
type LearnerCourse struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	LearnerID     uuid.UUID `gorm:"type:uuid;column:learner_id;not null;uniqueIndex:idx_learner_course,priority:1"`
	CourseID      uuid.UUID `gorm:"type:uuid;column:course_id;not null;uniqueIndex:idx_learner_course,priority:2"`
	SubjectNumber string    `gorm:"column:subject_number;not null;index"`
	TakenAt       time.Time `gorm:"column:taken_at;not null"`
	CreatedAt     time.Time
}

func (LearnerCourse) TableName() string { return "learner_courses" }

func (lc *LearnerCourse) BeforeSave(_ *gorm.DB) error {
	if lc.ID == uuid.Nil {
		lc.ID = uuid.New()
	}
	lc.SubjectNumber = course.NormalizeSubject(lc.SubjectNumber)
	return nil
}

// Review is a learner's rating (1-7) and optional free-text review of a course offering.
type Review struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	LearnerID     uuid.UUID `gorm:"type:uuid;column:learner_id;not null;index"`
	CourseID      uuid.UUID `gorm:"type:uuid;column:course_id;not null;index"`
	SubjectNumber string    `gorm:"column:subject_number;not null;index"`
	Rating        float64   `gorm:"column:rating;not null"`
	Text          string    `gorm:"column:text"`
	CreatedAt     time.Time `gorm:"index"`
}

func (Review) TableName() string { return "reviews" }

func (r *Review) BeforeSave(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.SubjectNumber = course.NormalizeSubject(r.SubjectNumber)
	return nil
}

// Models lists every table owned by the catalog, in migration order.
func Models() []any {
	return []any{&CourseRecord{}, &LearnerRecord{}, &LearnerCourse{}, &Review{}}
}
