package embedding

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain"
)

// buildHashFields converts a course embedding into a flat map for HSET.
func buildHashFields(e *domain.CourseEmbedding) map[string]string {
	return map[string]string{
		FieldCourseID:      e.CourseID,
		FieldSubjectNumber: e.SubjectNumber,
		FieldDepartment:    e.Department,
		FieldTitle:         e.Title,
		FieldType:          string(e.Type),
		FieldModelID:       e.Embedding.ModelID,
		FieldGeneratedAt:   strconv.FormatInt(e.Embedding.GeneratedAt.Unix(), 10),
		FieldSourceText:    e.SourceText,
		FieldVector:        db.EncodeVector(e.Embedding.Vector),
	}
}

// parseHashFields converts a flat hash back into a course embedding.
func parseHashFields(m map[string]string) (domain.CourseEmbedding, error) {
	vec, err := db.DecodeVector(m[FieldVector])
	if err != nil {
		return domain.CourseEmbedding{}, fmt.Errorf("decode %s: %w", FieldVector, err)
	}

	var generatedAt time.Time
	if raw := m[FieldGeneratedAt]; raw != "" {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.CourseEmbedding{}, fmt.Errorf("parse %s: %w", FieldGeneratedAt, err)
		}
		generatedAt = time.Unix(sec, 0).UTC()
	}

	return domain.CourseEmbedding{
		CourseID:      m[FieldCourseID],
		SubjectNumber: m[FieldSubjectNumber],
		Department:    m[FieldDepartment],
		Title:         m[FieldTitle],
		Type:          domain.EmbeddingType(m[FieldType]),
		SourceText:    m[FieldSourceText],
		Embedding: domain.VersionedEmbedding{
			Vector:      vec,
			ModelID:     m[FieldModelID],
			GeneratedAt: generatedAt,
		},
	}, nil
}
