package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"phishguard/internal/api"
	"phishguard/internal/api/handlers"
	"phishguard/internal/config"
	"phishguard/internal/domain/services"
	"phishguard/internal/infrastructure/cache"
	"phishguard/internal/infrastructure/database"
	"phishguard/internal/infrastructure/database/repository"
	"phishguard/internal/infrastructure/inference"
	"phishguard/internal/infrastructure/netcheck"
	"phishguard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting PhishGuard")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure. Both stores are optional; the analyzers run
	// fine without them.
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repositories
	var repos *repository.Repositories
	if db != nil {
		repos = repository.New(db, log)
		if err := repos.Analyses.EnsureSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure database schema, continuing without history")
			repos = nil
		} else {
			log.Info().Msg("repositories initialized with database")
		}
	} else {
		log.Warn().Msg("running without database - analysis history unavailable")
	}

	// Network check collaborators
	redirects := netcheck.NewRedirectClient(cfg.Checks.RedirectTimeout, cfg.Checks.MaxRedirects, log)
	whoisClient := netcheck.NewWhoisClient(cfg.Checks.WhoisTimeout, log)
	dnsClient := netcheck.NewDNSClient(log)

	// Optional remote classifier
	var classifier services.SentimentClassifier
	if cfg.Inference.Enabled && cfg.Inference.URL != "" {
		classifier = inference.NewClient(cfg.Inference, log)
		log.Info().Str("url", cfg.Inference.URL).Msg("remote text classifier enabled")
	}

	// Initialize analyzers
	textAnalyzer := services.NewTextAnalyzer(cfg.Scoring.Text, classifier, log)
	urlAnalyzer := services.NewURLAnalyzer(
		cfg.Scoring.URL, cfg.Checks,
		redirects, whoisClient, dnsClient,
		redisCache, log,
	)

	var store services.AnalysisStore
	if repos != nil {
		store = repos.Analyses
	}
	combinedAnalyzer := services.NewCombinedAnalyzer(
		cfg.Scoring.Combined, cfg.Checks.AnalysisTimeout,
		textAnalyzer, urlAnalyzer, store,
		cfg.App.Version, log,
	)
	log.Info().Msg("analyzers initialized")

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Combined: combinedAnalyzer,
		Text:     textAnalyzer,
		URLs:     urlAnalyzer,
		Repos:    repos,
		Cache:    redisCache,
		Logger:   log,
		Version:  cfg.App.Version,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects the optional database and cache backends
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}

	return db, redisCache
}
