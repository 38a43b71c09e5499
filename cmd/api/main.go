package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carelocate/waitline/internal/adapters/cache"
	"github.com/carelocate/waitline/internal/adapters/database"
	"github.com/carelocate/waitline/internal/adapters/events"
	"github.com/carelocate/waitline/internal/adapters/sources"
	"github.com/carelocate/waitline/internal/api/handlers"
	"github.com/carelocate/waitline/internal/api/routes"
	"github.com/carelocate/waitline/internal/application/services"
	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
	"github.com/carelocate/waitline/internal/domain/repositories"
	"github.com/carelocate/waitline/internal/infrastructure/clients/postgres"
	"github.com/carelocate/waitline/internal/infrastructure/clients/redis"
	"github.com/carelocate/waitline/internal/infrastructure/observability"
	"github.com/carelocate/waitline/pkg/breaker"
	"github.com/carelocate/waitline/pkg/config"
	"github.com/carelocate/waitline/pkg/ratelimit"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Facility catalog: Postgres in production, a JSON file for local runs
	var catalog repositories.FacilityRepository
	switch cfg.Catalog.Source {
	case "file":
		catalog, err = database.NewFileCatalog(cfg.Catalog.FilePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Catalog.FilePath).Msg("failed to load facility catalog")
		}
		log.Info().Str("path", cfg.Catalog.FilePath).Msg("facility catalog loaded from file")
	default:
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		catalog = database.NewFacilityAdapter(pgClient)
	}

	// Redis backs the live-cache mirror and the crowd log sink; the engine
	// runs fine without it, in-memory only.
	var cacheProvider providers.CacheProvider
	var crowdSink providers.CrowdLogSink
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Redis client, running in-memory only")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			crowdSink = events.NewRedisCrowdLogSink(redisClient)
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
		crowdSink = events.NewMemorySink()
	}

	// Wait-time sources and their guards
	scrapeSource := sources.NewScrapeSource(cfg.Engine.FetchTimeout)
	apiSource := sources.NewAPISource(cfg.Engine.FetchTimeout)

	breakers := breaker.NewRegistry(breaker.Config{
		FailureThreshold:   cfg.Engine.BreakerFailures,
		BaseCooldown:       cfg.Engine.BreakerCooldown,
		MaxBackoffExponent: cfg.Engine.BreakerMaxShift,
	})

	limiter := ratelimit.New(cfg.Engine.ScrapeInterval)
	limiter.SetInterval(string(entities.SourceScraped), cfg.Engine.ScrapeInterval)
	limiter.SetInterval(string(entities.SourceAPI), cfg.Engine.APIInterval)

	liveCache := services.NewLiveCache(cacheProvider)

	fallbackService := services.NewFallbackService(
		scrapeSource,
		apiSource,
		breakers,
		limiter,
		liveCache,
		metrics,
		services.FallbackConfig{
			FetchTimeout: cfg.Engine.FetchTimeout,
			StaleAfter:   cfg.Engine.StaleAfter,
		},
	)

	crowdLogService := services.NewCrowdLogService(crowdSink, metrics, services.CrowdLogConfig{
		AbandonedAfter: cfg.Engine.CrowdAbandonedAfter,
	})

	facilities, err := catalog.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list facilities")
	}
	log.Info().Int("count", len(facilities)).Msg("facility catalog ready")

	geofenceService := services.NewGeofenceService(facilities, services.GeofenceConfig{
		RadiusMeters: cfg.Engine.GeofenceRadiusMeters,
		MinDwell:     cfg.Engine.GeofenceMinDwell,
	})

	waitTimeService := services.NewWaitTimeService(
		catalog,
		liveCache,
		crowdLogService,
		geofenceService,
		cfg.Engine.StaleAfter,
		nil,
	)

	refreshService := services.NewRefreshService(
		catalog,
		fallbackService,
		metrics,
		cfg.Engine.RefreshConcurrency,
		cfg.Engine.RefreshInterval,
	)

	// Warm the live cache from the Redis mirror before serving reads
	if cacheProvider != nil {
		ids := make([]string, 0, len(facilities))
		for _, f := range facilities {
			ids = append(ids, f.ID)
		}
		liveCache.Restore(ctx, ids)
	}

	// Initialize handlers
	waitTimeHandler := handlers.NewWaitTimeHandler(waitTimeService, catalog)
	crowdLogHandler := handlers.NewCrowdLogHandler(crowdLogService, geofenceService)
	locationHandler := handlers.NewLocationHandler(geofenceService)
	refreshHandler := handlers.NewRefreshHandler(refreshService)

	// Set up router
	router := routes.NewRouter(
		waitTimeHandler,
		crowdLogHandler,
		locationHandler,
		refreshHandler,
	)
	handler := router.SetupRoutes()

	// Background refresh loop
	go refreshService.Start(ctx)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
