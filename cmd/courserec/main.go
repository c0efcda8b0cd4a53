package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/catalog"
	"github.com/kailas-cloud/courserec/internal/config"
	dbRedis "github.com/kailas-cloud/courserec/internal/db/redis"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
	logpkg "github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/metrics"
	embeddingrepo "github.com/kailas-cloud/courserec/internal/repository/embedding"
	searchrepo "github.com/kailas-cloud/courserec/internal/repository/search"
	chiTransport "github.com/kailas-cloud/courserec/internal/transport/chi"
	eligibilityuc "github.com/kailas-cloud/courserec/internal/usecase/eligibility"
	"github.com/kailas-cloud/courserec/internal/usecase/fusion"
	graphuc "github.com/kailas-cloud/courserec/internal/usecase/graph"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
	similaruc "github.com/kailas-cloud/courserec/internal/usecase/similar"
	"github.com/kailas-cloud/courserec/internal/usecase/sources"
	"github.com/kailas-cloud/courserec/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "api")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting courserec API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index store not ready", zap.Error(err))
	}
	logger.Info("Connected to index store")

	gdb, err := catalog.Open(cfg.Catalog.Driver, cfg.Catalog.DSN)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	courses := catalog.New(gdb, logger)
	defer func() { _ = courses.Close() }()
	if err := courses.Migrate(ctx); err != nil {
		logger.Fatal("Catalog migration failed", zap.Error(err))
	}
	logger.Info("Connected to catalog")

	// Repositories
	embeddings := embeddingrepo.New(store, embeddingrepo.Config{
		IndexName:  cfg.Index.Name,
		KeyPrefix:  cfg.Index.KeyPrefix,
		Dimensions: cfg.Embedding.Dimensions,
		HNSW: embeddingrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})
	searchRepo := searchrepo.New(store, cfg.Index.Name, cfg.Index.KeyPrefix)

	// Use case services
	rc := cfg.Recommend
	ranker := fusion.New(searchRepo, courses, fusion.Config{
		Weights: fusion.Weights{
			K:       rc.Fusion.K,
			Vector:  rc.Fusion.VectorWeight,
			Keyword: rc.Fusion.KeywordWeight,
		},
		CandidateMultiplier: rc.Fusion.CandidateMultiplier,
		MaxDepartmentBoost:  rc.MaxDepartmentBoost,
		Breaker: fusion.BreakerConfig{
			MaxFailures: rc.Breaker.MaxFailures,
			Open:        time.Duration(rc.Breaker.OpenSec) * time.Second,
			Interval:    time.Duration(rc.Breaker.IntervalSec) * time.Second,
		},
	})

	signalSources := map[recommendation.Strategy]recommenduc.Source{
		recommendation.Collaborative: sources.NewCollaborative(courses, courses, rc.MinPeerOverlap),
		recommendation.Department: sources.NewDepartment(
			courses, courses, rc.MinAverageRating, rc.MinReviewCount,
		),
		recommendation.Content: sources.NewContent(courses, sources.ContentConfig{
			MinKeywordLength: rc.MinKeywordLength,
			TopDepartments:   rc.TopDepartments,
		}),
		recommendation.Embeddings: sources.NewEmbeddings(embeddings, courses, ranker, rc.EmbeddingSeeds),
	}

	// Pass a nil interface (not a typed nil pointer) when the gate is disabled.
	var gate recommenduc.Gate
	if cfg.Eligibility.Enabled {
		gate = eligibilityuc.New(courses, eligibilityuc.Config{
			RecentWindow:   time.Duration(cfg.Eligibility.RecentWindowDays) * 24 * time.Hour,
			MinReviewShare: cfg.Eligibility.MinReviewShare,
		})
	}

	recommendSvc := recommenduc.New(courses, gate, signalSources, recommenduc.Config{
		DefaultLimit:       rc.DefaultLimit,
		MaxLimit:           rc.MaxLimit,
		MaxDepartmentBoost: rc.MaxDepartmentBoost,
		Exclusions:         course.NewExclusionPolicy(cfg.Exclusions.ReservedSuffixes, cfg.Exclusions.Foundational),
	})
	similarSvc := similaruc.New(courses, embeddings, ranker, graphuc.New(courses), similaruc.Config{
		DefaultLimit:   rc.DefaultLimit,
		MaxLimit:       rc.MaxLimit,
		SemanticWeight: rc.SemanticWeight,
		GraphDepth:     rc.GraphDepth,
	})
	healthSvc := healthuc.New(courses, store)

	server := chiTransport.NewServer(recommendSvc, similarSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.RateLimitMiddleware(cfg.RateLimit.RequestsPerMinute))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "route not found")
	})
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", chi.RouteContext(r.Context()).RoutePattern()),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
