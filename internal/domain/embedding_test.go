package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	result, err := emb.Embed(context.Background(), "intro to algorithms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "search_document: intro to algorithms" {
		t.Errorf("expected prepended text, got %q", inner.got)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "search_document: ")

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestVersionedEmbedding_IsStale(t *testing.T) {
	tests := []struct {
		name  string
		emb   VersionedEmbedding
		model string
		want  bool
	}{
		{"empty vector", VersionedEmbedding{ModelID: "m1"}, "m1", true},
		{"same model", VersionedEmbedding{Vector: []float32{1}, ModelID: "m1"}, "m1", false},
		{"model changed", VersionedEmbedding{Vector: []float32{1}, ModelID: "m1"}, "m2", true},
		{"unknown model", VersionedEmbedding{Vector: []float32{1}}, "m2", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.emb.IsStale(tc.model); got != tc.want {
				t.Errorf("IsStale(%q) = %v, want %v", tc.model, got, tc.want)
			}
		})
	}
}

func TestCourseEmbedding_Validate(t *testing.T) {
	ok := CourseEmbedding{
		CourseID:  "c1",
		Type:      EmbeddingDescription,
		Embedding: VersionedEmbedding{Vector: []float32{0.1, 0.2}},
	}
	if err := ok.Validate(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ok.Validate(3); err == nil {
		t.Error("expected dimension mismatch error")
	}

	bad := ok
	bad.Type = "syllabus"
	if err := bad.Validate(2); err == nil {
		t.Error("expected unknown type error")
	}

	noID := ok
	noID.CourseID = ""
	if err := noID.Validate(2); err == nil {
		t.Error("expected missing id error")
	}
}

func TestNotEligibleError_Unwrap(t *testing.T) {
	err := NewNotEligible(CriterionReviewShare, 1, 3)
	if !errors.Is(err, ErrNotEligible) {
		t.Fatal("expected errors.Is(err, ErrNotEligible)")
	}
	var ne *NotEligibleError
	if !errors.As(err, &ne) {
		t.Fatal("expected NotEligibleError")
	}
	if ne.Criterion != CriterionReviewShare || ne.Current != 1 || ne.Required != 3 {
		t.Errorf("unexpected fields: %+v", ne)
	}
}

func TestSourceError_Unwrap(t *testing.T) {
	cause := errors.New("index offline")
	err := &SourceError{Strategy: "embeddings", Err: cause}
	if !errors.Is(err, ErrSignalSourceDegraded) {
		t.Error("expected ErrSignalSourceDegraded")
	}
	if !errors.Is(err, cause) {
		t.Error("expected underlying cause")
	}
}

func TestNotFoundSentinels(t *testing.T) {
	if !errors.Is(ErrLearnerNotFound, ErrNotFound) {
		t.Error("learner not found should match ErrNotFound")
	}
	if !errors.Is(ErrCourseNotFound, ErrNotFound) {
		t.Error("course not found should match ErrNotFound")
	}
}
