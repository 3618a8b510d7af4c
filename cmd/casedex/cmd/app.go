package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/config"
	dbRedis "github.com/kailas-cloud/casedex/internal/db/redis"
	"github.com/kailas-cloud/casedex/internal/db/sqlite"
	"github.com/kailas-cloud/casedex/internal/domain"
	logpkg "github.com/kailas-cloud/casedex/internal/logger"
	"github.com/kailas-cloud/casedex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/casedex/internal/repository/budget"
	"github.com/kailas-cloud/casedex/internal/repository/casestore"
	"github.com/kailas-cloud/casedex/internal/repository/embcache"
	"github.com/kailas-cloud/casedex/internal/repository/enhancecache"
	"github.com/kailas-cloud/casedex/internal/repository/fulltext"
	"github.com/kailas-cloud/casedex/internal/repository/vectorindex"
	"github.com/kailas-cloud/casedex/internal/retry"
	openaiTransport "github.com/kailas-cloud/casedex/internal/transport/openai"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
	embeddinguc "github.com/kailas-cloud/casedex/internal/usecase/embedding"
	enhancementuc "github.com/kailas-cloud/casedex/internal/usecase/enhancement"
	healthuc "github.com/kailas-cloud/casedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/casedex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/casedex/internal/usecase/usage"
	"github.com/kailas-cloud/casedex/internal/version"
)

// prefetchDrainTimeout bounds how long shutdown waits for running warm-ups.
const prefetchDrainTimeout = 5 * time.Second

// app is the composition root shared by every subcommand.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	redis   *dbRedis.Store
	meta    *sqlite.DB
	content *fulltext.Reader

	index    *vectorindex.Repo
	store    *casestore.Store
	prefetch *enhancementuc.Prefetcher

	cases  *casedetailuc.Service
	search *searchuc.Service
	health *healthuc.Service
	usage  *usageuc.Service
}

// newApp loads configuration for env and wires every dependency.
// The caller must Close the returned app.
func newApp(ctx context.Context, env string) (a *app, err error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a = &app{env: env, cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	logger.Info("Starting casedex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Strings("redis_addrs", cfg.Database.Addrs),
		zap.String("sqlite_path", cfg.Store.SQLitePath),
	)

	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	metrics.RegisterProviderMetrics()
	metrics.RegisterSearchMetrics()

	base, embedder, budget, err := a.buildEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	chat := openaiTransport.NewChat(&openaiTransport.ChatConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		RefineModel: cfg.Chat.RefineModel,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.Chat.Temperature,
		Logger:      logger,
	})
	// Pass a nil interface, not a typed nil pointer, when no budget is configured.
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		chat = chat.WithBudget(budget)
		budgetReader = budget
	}
	a.usage = usageuc.New(budgetReader)

	cache, err := a.buildEnhancementCache()
	if err != nil {
		return nil, err
	}

	var content casedetailuc.ContentReader
	if a.content != nil {
		content = a.content
	}
	a.cases = casedetailuc.New(a.store, a.index, content, enhancementuc.New(chat, logger), cache, logger).
		WithRecorder(metrics.EnhancementRecorder{})

	opts := []searchuc.Option{
		searchuc.WithEnhancementCache(cache),
		searchuc.WithRecorder(metrics.SearchRecorder{}),
	}
	if cfg.Chat.RefineQuery {
		opts = append(opts, searchuc.WithRefiner(chat))
	}
	if cfg.Enhancement.PrefetchWorkers > 0 {
		a.prefetch, err = enhancementuc.NewPrefetcher(
			cfg.Enhancement.PrefetchWorkers, a.cases,
			config.Seconds(cfg.Enhancement.PrefetchTimeoutSec), logger,
		)
		if err != nil {
			return nil, fmt.Errorf("create prefetcher: %w", err)
		}
		opts = append(opts, searchuc.WithPrefetcher(a.prefetch))
	}
	a.search = searchuc.New(a.index, a.store, embedder, searchConfig(cfg), opts...)

	a.health = healthuc.New(a.redis, a.store, base)

	logger.Info("casedex ready",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("full_text", a.content != nil),
		zap.Bool("refine_query", cfg.Chat.RefineQuery),
		zap.Int("prefetch_workers", cfg.Enhancement.PrefetchWorkers),
	)
	return a, nil
}

// connect opens Redis, SQLite and the parquet corpus and waits until both stores answer.
func (a *app) connect(ctx context.Context) error {
	cfg := a.cfg
	readiness := config.Seconds(cfg.Database.ReadinessTimeout)

	redis, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("create redis store: %w", err)
	}
	a.redis = redis
	if err := redis.WaitForReady(ctx, readiness); err != nil {
		return fmt.Errorf("redis not ready: %w", err)
	}
	a.logger.Info("Connected to Redis")

	meta, err := sqlite.Open(sqlite.Config{
		Path:         cfg.Store.SQLitePath,
		ReadOnly:     true,
		BusyTimeout:  config.Millis(cfg.Store.BusyTimeoutMs),
		MaxOpenConns: cfg.Store.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	a.meta = meta
	if err := meta.WaitForReady(ctx, readiness); err != nil {
		return fmt.Errorf("metadata store not ready: %w", err)
	}
	a.logger.Info("Opened metadata store")

	if cfg.Store.ParquetDir != "" {
		content, err := fulltext.New(cfg.Store.ParquetDir, cfg.Store.OpenFiles)
		if err != nil {
			return fmt.Errorf("open full text corpus: %w", err)
		}
		a.content = content
	}

	a.index = vectorindex.New(redis, cfg.Database.KeyPrefix)
	a.store = casestore.New(meta)
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// It returns the bare provider for health checks and the budget for the chat client.
func (a *app) buildEmbedder(ctx context.Context) (
	*openaiTransport.Embedder, domain.Embedder, *embeddinguc.Budget, error,
) {
	cfg := a.cfg
	emb := cfg.Embedding

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:         emb.APIKey,
		BaseURL:        emb.BaseURL,
		Model:          emb.Model,
		Dimensions:     emb.Dimensions,
		MaxInputRunes:  emb.MaxInputRunes,
		SendDimensions: emb.SendDimensions,
		Provider:       emb.Provider,
		Logger:         a.logger,
	})

	cached, err := embcache.New(base, a.redis, embcache.Config{
		Namespace: emb.Model,
		TTL:       config.Seconds(emb.Cache.TTLSec),
		LocalSize: emb.Cache.LocalSize,
	}, metrics.EmbeddingCacheTotal, a.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create embedding cache: %w", err)
	}

	// One budget is shared by the embedder and the chat client.
	var budget *embeddinguc.Budget
	var checker embeddinguc.BudgetChecker
	if cfg.Budget.Enabled() {
		action := embeddinguc.BudgetActionWarn
		if cfg.Budget.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudget(
			emb.Provider, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, a.logger,
		).WithStore(ctx, budgetrepo.New(a.redis, 0, 0))
		checker = budget
	}

	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		cached, emb.Provider, emb.Model, checker, metrics.BudgetTokensRemaining, a.logger,
	)
	// Outermost, so cache keys include the instruction.
	if emb.Instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, emb.Instruction)
	}
	return base, embedder, budget, nil
}

func (a *app) buildEnhancementCache() (casedetailuc.EnhancementCache, error) {
	ttl := config.Seconds(a.cfg.Enhancement.TTLSec)
	if a.cfg.Enhancement.Cache == "redis" {
		return enhancecache.NewRedis(a.redis, ttl, a.logger), nil
	}
	mem, err := enhancecache.NewMemory(a.cfg.Enhancement.Capacity, ttl)
	if err != nil {
		return nil, fmt.Errorf("create enhancement cache: %w", err)
	}
	return mem, nil
}

// searchConfig maps the YAML settings onto the orchestrator config.
func searchConfig(cfg config.Config) searchuc.Config {
	s := cfg.Search
	out := searchuc.DefaultConfig()
	out.Threshold = s.Threshold
	out.ConfidenceMetric = searchuc.ConfidenceMetric(s.ConfidenceMetric)
	out.Cap = s.Cap
	out.Window = searchuc.CandidateWindow(s.Window)
	out.ParallelText = s.ParallelText
	out.RequestTimeout = config.Millis(s.RequestTimeoutMs)
	out.IndexTimeout = config.Millis(s.IndexTimeoutMs)
	out.StoreTimeout = config.Millis(s.StoreTimeoutMs)
	out.EmbedRetry = retry.DefaultConfig()
	out.EmbedRetry.Attempts = s.RetryAttempts
	out.EmbedRetry.AttemptTimeout = config.Millis(s.EmbedTimeoutMs)
	out.VocabularyTTL = config.Seconds(s.VocabularyTTLSec)
	if cfg.Enhancement.PrefetchWorkers > 0 {
		out.PrefetchTop = cfg.Enhancement.PrefetchTop
	}
	return out
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	if a.prefetch != nil {
		a.prefetch.Release(prefetchDrainTimeout)
	}
	if a.content != nil {
		a.content.Close()
	}
	if a.meta != nil {
		if err := a.meta.Close(); err != nil {
			a.logger.Warn("Failed to close metadata store", zap.Error(err))
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
	_ = a.logger.Sync()
}
