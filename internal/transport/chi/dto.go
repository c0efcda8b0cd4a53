package chi

import (
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	similaruc "github.com/kailas-cloud/courserec/internal/usecase/similar"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest               = "bad_request"
	codeValidationFailed         = "validation_failed"
	codeUnauthorized             = "unauthorized"
	codeRateLimited              = "rate_limited"
	codeLearnerNotFound          = "learner_not_found"
	codeCourseNotFound           = "course_not_found"
	codeNotFound                 = "not_found"
	codeNotEligible              = "not_eligible"
	codeSearchBackendUnavailable = "search_backend_unavailable"
	codeEmbeddingProviderError   = "embedding_provider_error"
	codeInternalError            = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NotEligibleResponse extends ErrorResponse with the failed criterion.
type NotEligibleResponse struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Criterion string  `json:"criterion"`
	Current   float64 `json:"current"`
	Required  float64 `json:"required"`
}

// CourseItem is one ranked course.
type CourseItem struct {
	CourseID      string   `json:"course_id"`
	SubjectNumber string   `json:"subject_number"`
	Aliases       []string `json:"aliases,omitempty"`
	Title         string   `json:"title"`
	Department    string   `json:"department"`
	Score         float64  `json:"score"`
	Reason        string   `json:"reason"`
}

// GroupResponse is one strategy's labeled list.
type GroupResponse struct {
	Strategy    string       `json:"strategy"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Degraded    bool         `json:"degraded"`
	Items       []CourseItem `json:"items"`
}

// RecommendationsResponse is the body of GET /learners/{learnerID}/recommendations.
type RecommendationsResponse struct {
	LearnerID string          `json:"learner_id"`
	Groups    []GroupResponse `json:"groups"`
}

// SimilarResponse is the body of GET /courses/{courseID}/similar.
type SimilarResponse struct {
	SeedCourseID     string       `json:"seed_course_id"`
	SeedCourse       string       `json:"seed_course"`
	Method           string       `json:"method"`
	SemanticWeight   float64      `json:"semantic_weight"`
	StructuralWeight float64      `json:"structural_weight"`
	Recommendations  []CourseItem `json:"recommendations"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func itemsToResponse(recs []recommendation.Recommendation) []CourseItem {
	out := make([]CourseItem, len(recs))
	for i := range recs {
		c := recs[i].Course()
		out[i] = CourseItem{
			CourseID:      c.ID,
			SubjectNumber: c.Key(),
			Aliases:       c.Aliases,
			Title:         c.Title,
			Department:    c.Dept(),
			Score:         recs[i].Score(),
			Reason:        recs[i].Reason(),
		}
	}
	return out
}

func groupToResponse(g *recommendation.Group) GroupResponse {
	return GroupResponse{
		Strategy:    string(g.Strategy),
		Title:       g.Title(),
		Description: g.Description(),
		Degraded:    g.Degraded,
		Items:       itemsToResponse(g.Items),
	}
}

func similarToResponse(r *similaruc.Result) SimilarResponse {
	return SimilarResponse{
		SeedCourseID:     r.SeedCourseID,
		SeedCourse:       r.SeedCourseLabel,
		Method:           r.Method,
		SemanticWeight:   r.SemanticWeight,
		StructuralWeight: r.StructuralWeight,
		Recommendations:  itemsToResponse(r.Recommendations),
	}
}
