// Package main is the entry point for the risk-balanced allocation optimizer service.
// The service accepts a snapshot of horizon buckets, tenor supply and a total amount,
// and returns how much to place in each (risk group, tenor, currency) sleeve so that
// DV01 exposure is spread as evenly as the bucket minima allow.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/riskalloc/internal/config"
	"github.com/aristath/riskalloc/internal/server"
	"github.com/aristath/riskalloc/pkg/logger"
)

// main loads configuration, sets up logging, starts the HTTP server and waits for
// SIGINT or SIGTERM before shutting down gracefully.
func main() {
	// Load configuration first to get log level
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
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	opts := cfg.OptimizerOptions()
	log.Info().
		Str("sensitivity", string(opts.Sensitivity)).
		Str("secondary_policy", string(opts.SecondaryPolicy)).
		Int32("decimal_places", opts.DecimalPlaces).
		Float64("epsilon", opts.Epsilon).
		Msg("Starting allocation optimizer")

	srv := server.New(server.Config{
		Log:     log,
		Config:  cfg,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
	})

	// Start server in goroutine
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

	// In-flight optimizer runs get up to 10 seconds to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
