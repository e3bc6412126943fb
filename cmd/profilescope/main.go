package main

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adityanexturn/profilescope/internal/analysis"
	"github.com/adityanexturn/profilescope/internal/api"
	internalconfig "github.com/adityanexturn/profilescope/internal/config"
	"github.com/adityanexturn/profilescope/internal/insight"
	"github.com/adityanexturn/profilescope/internal/instagram"
	"github.com/adityanexturn/profilescope/pkg/config"
	"github.com/adityanexturn/profilescope/pkg/database"
	"github.com/adityanexturn/profilescope/pkg/llm"
	"github.com/adityanexturn/profilescope/pkg/logging"
	"github.com/adityanexturn/profilescope/pkg/monitoring"
	"github.com/adityanexturn/profilescope/pkg/redis"
	"github.com/adityanexturn/profilescope/pkg/server"
	"github.com/adityanexturn/profilescope/pkg/version"
)

const serviceName = "profilescope"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	cfg := internalconfig.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)
	runsMetric, stageMetric, cacheMetric, upstreamMetric := metricsCollector.CreateAnalysisMetrics()

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"SOURCE_ACCESS_TOKEN": cfg.SourceAccessToken,
	}))

	fetcher := instagram.NewClient(instagram.ClientConfig{
		BaseURL:        cfg.SourceBaseURL,
		AccessToken:    cfg.SourceAccessToken,
		PageSize:       cfg.FetchPageSize,
		MaxItems:       cfg.FetchMaxItems,
		MaxRetries:     cfg.FetchMaxRetries,
		BaseDelay:      cfg.FetchBaseDelay,
		MaxDelay:       cfg.FetchMaxDelay,
		RequestTimeout: cfg.FetchTimeout,
		Logger:         logger,
		Upstream:       upstreamMetric,
	})

	store := buildInsightStore(cfg, healthChecker, logger)

	var provider llm.Provider
	llmCfg := llm.LoadConfig()
	if llmCfg.APIKey != "" || llmCfg.Provider == "ollama" {
		var err error
		provider, err = llm.NewProvider(llmCfg)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create LLM provider")
		}
		logger.WithFields(logging.Fields{
			"provider": llmCfg.Provider,
			"model":    llmCfg.Model,
		}).Info("Insight provider configured")
	} else {
		logger.Warn("No LLM credentials; runs will complete without insights")
	}

	orchestrator := insight.New(provider, store, insight.Options{
		StalenessWindow: cfg.InsightStaleness,
		CallTimeout:     cfg.InsightCallTimeout,
		MaxSampledPosts: cfg.InsightMaxPosts,
		MaxCaptionRunes: cfg.InsightMaxCaption,
	}, logger, cacheMetric)

	runner := analysis.NewRunner(fetcher, orchestrator, logger, &analysis.Metrics{
		Runs:          runsMetric,
		StageDuration: stageMetric,
	})

	router := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)
	api.NewHandlers(runner, logger).RegisterRoutes(router)

	serverCfg := server.DefaultConfig(serviceName, cfg.Port)
	if err := server.Start(serverCfg, router, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}

// buildInsightStore selects the insight cache backend from configuration.
func buildInsightStore(cfg internalconfig.Config, healthChecker *monitoring.HealthChecker, logger logging.Logger) insight.Store {
	switch cfg.CacheBackend {
	case internalconfig.CacheBackendPostgres:
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		db := database.MustConnect(dbCfg, logger)
		healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))

		store := insight.NewPostgresStore(db)
		if err := store.EnsureSchema(context.Background()); err != nil {
			logger.WithError(err).Fatal("Failed to prepare insight cache schema")
		}
		return store

	case internalconfig.CacheBackendRedis:
		client, err := redis.NewClientFromURL(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		healthChecker.AddCheck("redis", monitoring.PingerHealthCheck("redis", redisPinger{client}))
		return insight.NewRedisStore(client, cfg.InsightStaleness)

	default:
		return insight.NewMemoryStore(cfg.InsightStaleness, 1024)
	}
}

// redisPinger adapts go-redis's StatusCmd-returning Ping to the health
// checker's error-returning signature.
type redisPinger struct {
	client goredis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
