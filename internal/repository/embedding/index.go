package embedding

import (
	"github.com/kailas-cloud/courserec/internal/db"
)

// Hash field names of a stored course embedding. They double as the index schema.
const (
	FieldCourseID      = "course_id"
	FieldSubjectNumber = "subject_number"
	FieldDepartment    = "department"
	FieldTitle         = "title"
	FieldType          = "embedding_type"
	FieldModelID       = "model_id"
	FieldGeneratedAt   = "generated_at"
	FieldSourceText    = "source_text"
	FieldVector        = "vector"
)

// titleWeight makes a title hit count twice as much as a description hit in BM25.
const titleWeight = 2.0

// TextFields are the TEXT fields searched by keyword queries.
var TextFields = []string{FieldTitle, FieldSourceText}

// HNSWConfig holds HNSW index tuning parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config locates the embedding index and its documents.
type Config struct {
	IndexName  string
	KeyPrefix  string
	Dimensions int
	HNSW       HNSWConfig
}

// buildIndex creates the FT index covering every course embedding hash.
func buildIndex(cfg Config) (*db.IndexDefinition, error) {
	return db.NewIndex(cfg.IndexName).
		Prefix(cfg.KeyPrefix).
		Tag(FieldCourseID, FieldSubjectNumber, FieldDepartment, FieldType, FieldModelID).
		TextWeighted(FieldTitle, titleWeight).
		Text(FieldSourceText).
		Numeric(FieldGeneratedAt).
		VectorHNSW(FieldVector, cfg.Dimensions, db.DistanceCosine, cfg.HNSW.M, cfg.HNSW.EFConstruct).
		Build()
}
