package db

import (
	"strings"
	"testing"
)

func courseEmbeddingIndex(t *testing.T) *IndexDefinition {
	t.Helper()
	idx, err := NewIndex("courserec:embeddings").
		Prefix("courserec:emb:").
		Tag("course_id", "subject_number", "embedding_type").
		TextWeighted("title", 2).
		Text("source_text").
		Numeric("generated_at").
		VectorHNSW("vector", 768, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return idx
}

func TestIndexBuilder_CourseEmbeddings(t *testing.T) {
	idx := courseEmbeddingIndex(t)

	if len(idx.Fields) != 7 {
		t.Fatalf("fields count = %d, want 7", len(idx.Fields))
	}
	if idx.Fields[0].Name != "course_id" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want course_id TAG", idx.Fields[0])
	}
	if idx.Fields[2].Name != "embedding_type" {
		t.Errorf("variadic Tag must keep order, field[2] = %s", idx.Fields[2].Name)
	}
	if idx.Fields[3].TextWeight != 2 {
		t.Errorf("title weight = %g, want 2", idx.Fields[3].TextWeight)
	}
	if idx.Fields[5].Type != IndexFieldNumeric {
		t.Errorf("field[5] = %+v, want NUMERIC", idx.Fields[5])
	}

	v := idx.Fields[6]
	if v.VectorDim != 768 || v.VectorDistance != DistanceCosine {
		t.Errorf("vector = %+v", v)
	}
	if v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("M/EF = %d/%d, want 16/200", v.VectorM, v.VectorEFConstruct)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Tag("x"), "index name is required"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"vector without dim", NewIndex("idx").VectorHNSW("v", 0, DistanceCosine, 0, 0), "positive DIM"},
		{"negative text weight", NewIndex("idx").TextWeighted("title", -1), "text weight"},
		{"invalid characters", NewIndex("idx with spaces").Tag("x"), "invalid characters"},
		{"duplicate field", NewIndex("idx").Tag("course_id").Numeric("course_id"), "duplicate field"},
		{
			"two vectors",
			NewIndex("idx").
				VectorHNSW("a", 3, DistanceCosine, 0, 0).
				VectorHNSW("b", 3, DistanceIP, 0, 0),
			"at most one vector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for s, want := range map[string]bool{
		"courserec:embeddings": true,
		"idx_v2-b":             true,
		"":                     false,
		"has space":            false,
		"emb*":                 false,
	} {
		if got := IsValidIdentifier(s); got != want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", s, got, want)
		}
	}
}
