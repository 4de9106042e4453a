// @title Quote Service API
// @version 1.0
// @description Internal API for service quotations, submissions and catalog cache management.
// @BasePath /internal
// @securityDefinitions.apikey InternalAPIKey
// @in header
// @name X-Internal-API-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kosarica/quote-service/config"
	_ "github.com/kosarica/quote-service/docs"
	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/database"
	"github.com/kosarica/quote-service/internal/handlers"
	"github.com/kosarica/quote-service/internal/middleware"
	"github.com/kosarica/quote-service/internal/notify"
	"github.com/kosarica/quote-service/internal/submission"
	"github.com/kosarica/quote-service/internal/sweepers"
	"github.com/kosarica/quote-service/internal/taskqueue"
	"github.com/kosarica/quote-service/internal/telemetry"
	"github.com/kosarica/quote-service/internal/workers"
)

func main() {
	cfg, err := config.Load(os.Getenv("QUOTE_SERVICE_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)
	zlog.Logger = *logger

	logger.Info().Msg("Starting quote service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}
	if err := database.Connect(ctx, dbURL, database.PoolConfig{
		MaxConns:    cfg.Database.MaxConnections,
		MinConns:    cfg.Database.MinConnections,
		MaxLifetime: cfg.Database.MaxConnLifetime,
		MaxIdleTime: cfg.Database.MaxConnIdleTime,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()
	logger.Info().Msg("Database connected")

	if err := database.Migrate(ctx, database.Pool()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply schema")
	}

	cache, listServices, err := buildCatalog(cfg.Quoting, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up catalog")
	}
	if cfg.Quoting.CatalogSource == config.CatalogSourcePostgres {
		go database.NewCatalogListener(database.Pool(), cache, *logger).Run(ctx)
	}
	if ids, err := listServices(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to list services for warmup")
	} else if err := cache.Warmup(ctx, ids); err != nil {
		logger.Warn().Err(err).Msg("Catalog warmup incomplete")
	}

	queue := taskqueue.New(database.Pool())
	webhook := notify.NewHTTPNotifier(cfg.Notify, *logger)

	var notifier submission.Notifier = notify.Nop{}
	switch {
	case cfg.Notify.WebhookURL == "":
		logger.Warn().Msg("CRM_WEBHOOK_URL not set, CRM notifications disabled")
	case cfg.Notify.Queue:
		notifier = notify.NewQueueNotifier(queue, *logger)
	default:
		notifier = webhook
	}

	pipeline := submission.NewPipeline(cache, database.NewSubmissionStore(database.Pool()), notifier, submission.Config{
		SubmissionTTL: cfg.Quoting.SubmissionTTL,
	})

	handlers.InitQuoting(pipeline)
	handlers.InitCatalog(cache, listServices)

	var worker *workers.Worker
	if cfg.Worker.Enabled {
		worker = workers.New(queue, cfg.Worker.WorkerConfig, *logger)
		worker.RegisterHandler(taskqueue.TaskTypeCRMSync, notify.SyncHandler(webhook))
		worker.RegisterHandler(taskqueue.TaskTypeExpireSubmissions, workers.NewExpireHandler(pipeline, *logger))
		worker.Start(ctx)
	}

	var sweeps []*sweepers.Sweeper
	if cfg.Sweeper.Enabled {
		sweeps = append(sweeps,
			sweepers.New("expiry", cfg.Sweeper.ExpiryInterval, sweepers.ExpireSubmissions(pipeline, *logger), *logger),
			sweepers.New("task_queue", cfg.Sweeper.TaskQueueInterval, sweepers.MaintainTaskQueue(queue, cfg.Sweeper.Config, *logger), *logger),
		)
		for _, s := range sweeps {
			go s.Start(ctx)
		}
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(*logger))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Server.InternalAPIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(cfg.Server.RequestsPerSecond, cfg.Server.Burst))
	{
		internal.GET("/health", handlers.HealthCheck)
		handlers.RegisterRoutes(internal)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	for _, s := range sweeps {
		s.Stop()
	}
	if worker != nil {
		worker.Stop()
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

// buildCatalog returns the cached catalog source configured by cfg and a
// function listing its service ids.
func buildCatalog(cfg config.QuotingConfig, logger *zerolog.Logger) (*catalog.Cache, func(context.Context) ([]string, error), error) {
	cacheCfg := cfg.Cache
	switch cfg.CatalogSource {
	case config.CatalogSourceFile:
		mem, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("file", cfg.CatalogFile).Msg("Serving catalog from file")
		return catalog.NewCache(mem, &cacheCfg), func(context.Context) ([]string, error) {
			return mem.ServiceIDs(), nil
		}, nil
	default:
		repo := database.NewCatalogRepository(database.Pool())
		return catalog.NewCache(repo, &cacheCfg), repo.ServiceIDs, nil
	}
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "quote-service").Logger()
	return &logger
}
