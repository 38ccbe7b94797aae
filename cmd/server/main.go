// Package main is the entry point for the portsort HTTP service.
// It serves breakpoint, assignment and aggregation endpoints for portfolio
// sorts over inline samples or files under the configured data directory.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/portsort/internal/config"
	"github.com/aristath/portsort/internal/database"
	"github.com/aristath/portsort/internal/server"
	"github.com/aristath/portsort/pkg/logger"
)

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting portsort")

	// The sample store is optional; without it only inline and file sources work
	var sampleDB *database.DB
	if cfg.SampleDB != "" {
		sampleDB, err = database.New(database.Config{
			Path:    cfg.SampleDB,
			Profile: database.ProfileSamples,
			Name:    "samples",
		})
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SampleDB).Msg("Failed to open sample database")
		}
		defer sampleDB.Close()
		log.Info().Str("path", sampleDB.Path()).Msg("Sample database opened")
	}

	srv := server.New(server.Config{
		Log:          log,
		SampleDB:     sampleDB,
		DataDir:      cfg.DataDir,
		Port:         cfg.Port,
		MaxBodyBytes: cfg.MaxBodyBytes,
		DevMode:      cfg.DevMode,
		Version:      getEnv("VERSION", "dev"),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
