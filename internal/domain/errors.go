package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrLearnerNotFound signals a missing learner record.
	ErrLearnerNotFound = fmt.Errorf("learner %w", ErrNotFound)
	// ErrCourseNotFound signals a missing course record.
	ErrCourseNotFound = fmt.Errorf("course %w", ErrNotFound)
	// ErrNotEligible signals a learner that failed an eligibility gate.
	ErrNotEligible = errors.New("not eligible")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSearchBackendUnavailable signals that both the hybrid and the vector-only search failed.
	ErrSearchBackendUnavailable = errors.New("search backend unavailable")
	// ErrSignalSourceDegraded signals that a single recommendation source failed internally.
	ErrSignalSourceDegraded = errors.New("signal source degraded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the embedding token budget is spent.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingMissing signals that no precomputed embedding exists for a course.
	ErrEmbeddingMissing = errors.New("embedding missing")
)

// Eligibility criteria names reported in NotEligibleError.
const (
	CriterionRecentContribution = "recent_contribution"
	CriterionReviewShare        = "review_share"
)

// NotEligibleError wraps ErrNotEligible with the failed criterion and its counts.
type NotEligibleError struct {
	Criterion string
	Current   float64
	Required  float64
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("%s: %s (current %g, required %g)",
		ErrNotEligible.Error(), e.Criterion, e.Current, e.Required)
}

func (e *NotEligibleError) Unwrap() error { return ErrNotEligible }

// NewNotEligible creates an eligibility error.
func NewNotEligible(criterion string, current, required float64) error {
	return &NotEligibleError{Criterion: criterion, Current: current, Required: required}
}

// SourceError records which recommendation strategy failed and why.
type SourceError struct {
	Strategy string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSignalSourceDegraded.Error(), e.Strategy, e.Err)
}

// Unwrap exposes both the degraded sentinel and the underlying cause.
func (e *SourceError) Unwrap() []error { return []error{ErrSignalSourceDegraded, e.Err} }
