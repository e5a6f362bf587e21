package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/config"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/event"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation/gemini"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation/openrouter"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation/static"
	handler "github.com/deeppgcsca037/Rating-Prediction-Backend/internal/handler/http"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/repository/postgres"
	redisrepo "github.com/deeppgcsca037/Rating-Prediction-Backend/internal/repository/redis"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/service"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/migrations"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/database"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/health"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httpclient"
	pkgkafka "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/kafka"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/tracing"
)

const serviceName = "feedback"

// App wires together all dependencies and runs the feedback service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	var opts []service.Option

	// Optional Redis analytics cache.
	if cfg.RedisEnabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		logger.Info("connected to Redis",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Int("db", cfg.RedisDB),
		)
		opts = append(opts, service.WithAnalyticsCache(redisrepo.NewAnalyticsCache(rdb, cfg.AnalyticsCacheTTL())))
	}

	// Optional Kafka producer.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		opts = append(opts, service.WithEventPublisher(event.NewProducer(a.producer, logger)))
	}

	// Build the dependency graph.
	providers := buildProviders(cfg, logger)
	orchestrator := generation.NewOrchestrator(logger, providers...).WithBudget(cfg.GenerationBudget())
	logger.Info("generation providers configured", slog.Any("providers", orchestrator.Providers()))

	repo := postgres.NewReviewRepository(pool)
	feedbackService := service.NewFeedbackService(repo, orchestrator, logger, opts...)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.rdb != nil {
		rdb := a.rdb
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	router := handler.NewRouter(feedbackService, healthHandler, handler.RouterConfig{
		Version:        cfg.Version,
		CORSOrigins:    cfg.CORSOrigins,
		AdminToken:     cfg.AdminAPIToken,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RequestTimeout: cfg.RequestTimeout(),
	}, logger)

	a.httpServer = newHTTPServer(cfg, router)
	return a, nil
}

// buildProviders returns the provider chain in priority order: Gemini,
// OpenRouter, then the static development provider.
func buildProviders(cfg *config.Config, logger *slog.Logger) []generation.Provider {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.LLMTimeout()
	httpCfg.MaxRetries = cfg.LLMMaxRetries

	var providers []generation.Provider
	if cfg.GeminiEnabled() {
		providers = append(providers, gemini.New(gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			HTTP:    httpCfg,
		}, logger))
	}
	if cfg.OpenRouterEnabled() {
		providers = append(providers, openrouter.New(openrouter.Config{
			APIKey: cfg.OpenRouterAPIKey,
			URL:    cfg.OpenRouterURL,
			Model:  cfg.OpenRouterModel,
			HTTP:   httpCfg,
		}, logger))
	}
	if cfg.StaticProvider {
		providers = append(providers, static.New())
	}
	if len(providers) == 0 {
		logger.Warn("no generation provider configured, template responses only")
	}
	return providers
}

// newHTTPServer leaves headroom above the request timeout so slow provider
// calls end with a response instead of a dropped connection.
func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeAll()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: the HTTP server drains
// in-flight requests, then the tracer flushes, then Kafka, Redis and
// PostgreSQL are closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeAll()

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
