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

	"github.com/acstore/replenishment/internal/api"
	"github.com/acstore/replenishment/internal/cache"
	"github.com/acstore/replenishment/internal/config"
	"github.com/acstore/replenishment/internal/repository/postgres"
	"github.com/acstore/replenishment/internal/service"
	"github.com/acstore/replenishment/pkg/logger"
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

	// Initialize result database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize the ERP mirror connection for quotation lookups
	sourceDB, err := postgres.NewSourceDB(cfg.Source.URL)
	if err != nil {
		log.Fatalf("Failed to connect to source database: %v", err)
	}
	defer sourceDB.Close()

	suggestionCache, err := cache.NewSuggestionCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("suggestion cache unavailable, continuing without cache")
		suggestionCache = cache.NewNoopSuggestionCache()
	}

	results := postgres.NewResultRepository(db)
	source := postgres.NewSourceRepository(sourceDB, cfg.Source.Company)
	replanService := service.NewReplanService(results, source, suggestionCache)

	router := api.NewRouter(&api.Services{ReplanService: replanService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
