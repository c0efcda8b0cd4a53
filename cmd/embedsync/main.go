// Command embedsync backfills course embeddings into the vector index.
// It runs out of band; the API server only reads what this job writes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/catalog"
	"github.com/kailas-cloud/courserec/internal/config"
	dbRedis "github.com/kailas-cloud/courserec/internal/db/redis"
	"github.com/kailas-cloud/courserec/internal/domain"
	logpkg "github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/metrics"
	budgetrepo "github.com/kailas-cloud/courserec/internal/repository/budget"
	"github.com/kailas-cloud/courserec/internal/repository/embcache"
	embeddingrepo "github.com/kailas-cloud/courserec/internal/repository/embedding"
	openaiEmb "github.com/kailas-cloud/courserec/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/courserec/internal/usecase/embedding"
	"github.com/kailas-cloud/courserec/internal/usecase/embedsync"
	"github.com/kailas-cloud/courserec/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "embedsync")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting embedding sync",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index store not ready", zap.Error(err))
	}

	gdb, err := catalog.Open(cfg.Catalog.Driver, cfg.Catalog.DSN)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	courses := catalog.New(gdb, logger)
	defer func() { _ = courses.Close() }()

	// Register embedding metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	embedder := buildEmbedder(ctx, base, store, &cfg.Embedding, logger)

	embeddings := embeddingrepo.New(store, embeddingrepo.Config{
		IndexName:  cfg.Index.Name,
		KeyPrefix:  cfg.Index.KeyPrefix,
		Dimensions: cfg.Embedding.Dimensions,
		HNSW: embeddingrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})

	svc := embedsync.New(courses, courses, embeddings, embedder, embedsync.Config{
		ModelID:           base.ModelID(),
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Burst:             cfg.Embedding.Burst,
	})

	started := time.Now()
	stats, err := svc.Run(logpkg.ContextWithLogger(ctx, logger))
	fields := []zap.Field{
		zap.Int("written", stats.Written),
		zap.Int("fresh", stats.Fresh),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", time.Since(started)),
	}
	if err != nil {
		logger.Fatal("Embedding sync aborted", append(fields, zap.Error(err))...)
	}
	logger.Info("Embedding sync finished", fields...)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func buildEmbedder(
	ctx context.Context, base *openaiEmb.Embedder, store *dbRedis.Store,
	cfg *config.EmbeddingConfig, logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if cfg.CacheTTLSec > 0 {
		embedder = embcache.New(
			base, store, base.ModelID(),
			time.Duration(cfg.CacheTTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	// Pass a nil interface (not a typed nil pointer) when no limits are set
	var budget embeddinguc.BudgetChecker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		budget = embeddinguc.NewBudgetTracker(
			base.ModelID(),
			cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit,
			embeddinguc.BudgetAction(cfg.Budget.Action), logger,
		).WithStore(ctx, budgetrepo.New(store, 24*time.Hour))
	}
	// Cache hits cost nothing, so the budget sits outside the cache
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, base.ModelID(), budget, logger)

	// Instruction prefix is outermost so the cache key includes it
	if cfg.DocumentInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.DocumentInstruction)
	}
	return embedder
}
