package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestStore(tb testing.TB) *Store {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// Every pooled connection to ":memory:" would otherwise see its own empty database.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	s := New(db, nil)
	if err := s.Migrate(context.Background()); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return s
}

func seedCourse(tb testing.TB, s *Store, c *CourseRecord) *CourseRecord {
	tb.Helper()
	if err := s.DB().Create(c).Error; err != nil {
		tb.Fatalf("seed course %s: %v", c.SubjectNumber, err)
	}
	return c
}

func seedOffered(tb testing.TB, s *Store, subject string, year int, aliases ...string) *CourseRecord {
	tb.Helper()
	return seedCourse(tb, s, &CourseRecord{
		SubjectNumber: subject,
		Aliases:       datatypes.JSONSlice[string](aliases),
		Title:         "Course " + subject,
		Offered:       true,
		AcademicYear:  year,
	})
}

func seedLearner(tb testing.TB, s *Store, l *LearnerRecord) *LearnerRecord {
	tb.Helper()
	if l == nil {
		l = &LearnerRecord{}
	}
	if err := s.DB().Create(l).Error; err != nil {
		tb.Fatalf("seed learner: %v", err)
	}
	return l
}

func seedTaken(tb testing.TB, s *Store, learnerID uuid.UUID, c *CourseRecord, takenAt time.Time) {
	tb.Helper()
	lc := &LearnerCourse{
		LearnerID:     learnerID,
		CourseID:      c.ID,
		SubjectNumber: c.SubjectNumber,
		TakenAt:       takenAt,
	}
	if err := s.DB().Create(lc).Error; err != nil {
		tb.Fatalf("seed taken %s: %v", c.SubjectNumber, err)
	}
}

func seedReview(tb testing.TB, s *Store, learnerID uuid.UUID, c *CourseRecord, rating float64, text string, at time.Time) {
	tb.Helper()
	r := &Review{
		LearnerID:     learnerID,
		CourseID:      c.ID,
		SubjectNumber: c.SubjectNumber,
		Rating:        rating,
		Text:          text,
		CreatedAt:     at,
	}
	if err := s.DB().Create(r).Error; err != nil {
		tb.Fatalf("seed review %s: %v", c.SubjectNumber, err)
	}
}
