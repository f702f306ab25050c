package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/jubmeng/rainbow/internal/auth"
	"github.com/jubmeng/rainbow/internal/config"
	"github.com/jubmeng/rainbow/internal/event"
	handler "github.com/jubmeng/rainbow/internal/handler/http"
	"github.com/jubmeng/rainbow/internal/repository/postgres"
	redisrepo "github.com/jubmeng/rainbow/internal/repository/redis"
	"github.com/jubmeng/rainbow/internal/service"
	"github.com/jubmeng/rainbow/migrations"
	"github.com/jubmeng/rainbow/pkg/database"
	"github.com/jubmeng/rainbow/pkg/health"
	pkgkafka "github.com/jubmeng/rainbow/pkg/kafka"
	"github.com/jubmeng/rainbow/pkg/middleware"
	"github.com/jubmeng/rainbow/pkg/tracing"
)

// ServiceName labels logs, metrics and spans.
const ServiceName = "rainbow"

// App wires together all dependencies and runs the rainbow service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc

	// stop ends background work tied to the router.
	stop context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(reg, pool, ServiceName); err != nil {
		pool.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:        cfg.RedisHost,
		Port:        cfg.RedisPort,
		Password:    cfg.RedisPass,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr()),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer behind a circuit breaker.
	producer := pkgkafka.NewProducer(
		pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers),
		pkgkafka.NewProducerMetrics(reg),
		logger,
	)
	publisher := event.NewBreakerPublisher(producer, event.DefaultBreakerConfig("kafka"), reg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	eventProducer := event.NewProducer(publisher, logger)

	listingRepo := postgres.NewListingRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	savedRepo := postgres.NewSavedRepository(pool)
	resetTokens := redisrepo.NewResetTokenStore(rdb)

	reviewService := service.NewReviewService(reviewRepo, eventProducer, reg, logger)
	listingService := service.NewListingService(listingRepo, userRepo, logger)
	userService := service.NewUserService(userRepo, resetTokens, jwtManager, hasher, eventProducer, logger)
	savedService := service.NewSavedService(savedRepo, listingRepo, userRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	}

	routerCtx, stop := context.WithCancel(context.Background())
	router := handler.NewRouter(routerCtx, handler.RouterDeps{
		Reviews:        reviewService,
		Listings:       listingService,
		Users:          userService,
		Saved:          savedService,
		TokenValidator: jwtManager.Validator(),
		Health:         healthHandler,
		Metrics:        middleware.NewHTTPMetrics(reg, ServiceName),
		Gatherer:       reg,
		CORS:           corsCfg,
		AuthRateLimit: handler.RateLimitConfig{
			RPS:            cfg.AuthRateLimitRPS,
			Burst:          cfg.AuthRateLimitBurst,
			TrustedProxies: cfg.TrustedProxyCIDRs,
		},
		CacheMaxAge: cfg.CacheMaxAgeSeconds,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		ServiceName: ServiceName,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stop:           stop,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stop()

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis client.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
