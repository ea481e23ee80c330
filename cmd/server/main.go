// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahmadmuradi/electronics-store/internal/api"
	"github.com/ahmadmuradi/electronics-store/internal/artifact"
	"github.com/ahmadmuradi/electronics-store/internal/cache"
	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/forecast"
	"github.com/ahmadmuradi/electronics-store/internal/pricing"
	"github.com/ahmadmuradi/electronics-store/internal/reorder"
	"github.com/ahmadmuradi/electronics-store/internal/repository/postgres"
	"github.com/ahmadmuradi/electronics-store/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	salesRepo := postgres.NewSalesRepository(db)
	stockRepo := postgres.NewStockRepository(db)

	store, err := newArtifactStore(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize artifact store")
	}

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	manager := forecast.NewManager(salesRepo, store, forecastCache, cfg.Forecast)
	estimator := pricing.NewEstimator(salesRepo, forecastCache)
	optimizer := pricing.NewOptimizer(salesRepo, estimator)
	calculator := reorder.NewCalculator(salesRepo, manager, cfg.Reorder)
	suggester := reorder.NewSuggester(stockRepo, calculator, cfg.Reorder)

	router := api.NewRouter(&api.Services{
		Forecast:   manager,
		Estimator:  estimator,
		Optimizer:  optimizer,
		Calculator: calculator,
		Suggester:  suggester,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func newArtifactStore(cfg *config.Config) (artifact.Store, error) {
	if cfg.Artifacts.Backend == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return artifact.NewMinioStore(ctx, cfg.Artifacts)
	}
	return artifact.NewFSStore(cfg.Artifacts.Dir)
}
