package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	similaruc "github.com/kailas-cloud/courserec/internal/usecase/similar"
)

// Recommender produces labeled recommendation groups for a learner.
type Recommender interface {
	Recommend(
		ctx context.Context, learnerID string, strategies []recommendation.Strategy, limit int,
	) ([]recommendation.Group, error)
}

// SimilarFinder ranks courses related to a seed course.
type SimilarFinder interface {
	GetSimilarCourses(ctx context.Context, seedID string, limit int, semanticWeight *float64) (similaruc.Result, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the recommendation API on a chi router.
type Server struct {
	recommender   Recommender
	similar       SimilarFinder
	health        HealthChecker
	logger        *zap.Logger
	validate      *validator.Validate
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommender Recommender,
	similar SimilarFinder,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommender: recommender,
		similar:     similar,
		health:      health,
		logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
	s.errorHandlers = []errorHandler{
		notEligibleHandler,
		invalidRequestHandler,
		sentinelHandler(domain.ErrLearnerNotFound, http.StatusNotFound, codeLearnerNotFound),
		sentinelHandler(domain.ErrCourseNotFound, http.StatusNotFound, codeCourseNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSearchBackendUnavailable, http.StatusBadGateway, codeSearchBackendUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/learners/{learnerID}/recommendations", s.GetRecommendations)
	r.Get("/courses/{courseID}/similar", s.GetSimilarCourses)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// RecommendationParams are the inputs of GET /learners/{learnerID}/recommendations.
type RecommendationParams struct {
	LearnerID  string    `validate:"required,uuid"`
	Strategies *[]string `validate:"omitempty,dive,oneof=collaborative department content embeddings"`
	Limit      *int      `validate:"omitempty,min=0"`
}

// GetRecommendations handles GET /learners/{learnerID}/recommendations.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	params := RecommendationParams{LearnerID: gochi.URLParam(r, "learnerID")}
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", false, false, "strategies", q, &params.Strategies); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid strategies parameter")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid limit parameter")
		return
	}
	if err := s.validate.Struct(&params); err != nil {
		writeValidationError(w, err)
		return
	}

	var strategies []recommendation.Strategy
	if params.Strategies != nil {
		strategies = make([]recommendation.Strategy, len(*params.Strategies))
		for i, v := range *params.Strategies {
			strategies[i] = recommendation.Strategy(v)
		}
	}

	groups, err := s.recommender.Recommend(r.Context(), params.LearnerID, strategies, derefInt(params.Limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := RecommendationsResponse{
		LearnerID: params.LearnerID,
		Groups:    make([]GroupResponse, len(groups)),
	}
	for i := range groups {
		resp.Groups[i] = groupToResponse(&groups[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// SimilarParams are the inputs of GET /courses/{courseID}/similar.
type SimilarParams struct {
	CourseID       string   `validate:"required,uuid"`
	Limit          *int     `validate:"omitempty,min=0"`
	SemanticWeight *float64 `validate:"omitempty,min=0,max=1"`
}

// GetSimilarCourses handles GET /courses/{courseID}/similar.
func (s *Server) GetSimilarCourses(w http.ResponseWriter, r *http.Request) {
	params := SimilarParams{CourseID: gochi.URLParam(r, "courseID")}
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid limit parameter")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "semantic_weight", q, &params.SemanticWeight); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid semantic_weight parameter")
		return
	}
	if err := s.validate.Struct(&params); err != nil {
		writeValidationError(w, err)
		return
	}

	res, err := s.similar.GetSimilarCourses(r.Context(), params.CourseID, derefInt(params.Limit), params.SemanticWeight)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, similarToResponse(&res))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "validation failed")
		return
	}
	fe := verrs[0]
	msg := "invalid " + fe.Field() + ": failed " + fe.Tag()
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrLearnerNotFound,
		domain.ErrCourseNotFound,
		domain.ErrNotFound,
		domain.ErrNotEligible,
		domain.ErrInvalidRequest,
		domain.ErrSearchBackendUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// notEligibleHandler reports the failed eligibility criterion with its counts.
func notEligibleHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrNotEligible) {
		return false
	}
	var ne *domain.NotEligibleError
	if errors.As(err, &ne) {
		writeJSON(w, http.StatusForbidden, NotEligibleResponse{
			Code:      codeNotEligible,
			Message:   msg,
			Criterion: ne.Criterion,
			Current:   ne.Current,
			Required:  ne.Required,
		})
		return true
	}
	writeError(w, http.StatusForbidden, codeNotEligible, msg)
	return true
}

// invalidRequestHandler echoes the reason, which only ever describes caller input.
func invalidRequestHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
