package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kurihiro0119/repository-feed/internal/api"
	"github.com/kurihiro0119/repository-feed/internal/app"
	"github.com/kurihiro0119/repository-feed/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Initialize storage, collector and feed
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	// Setup routes
	handler := api.NewHandler(a.Feed, a.Aggregator)
	router := api.SetupRoutes(handler, logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info("Starting API server",
		zap.String("addr", addr),
		zap.String("storage", cfg.StorageType),
		zap.String("account", cfg.Feed.Account))

	if err := router.Run(addr); err != nil {
		logger.Error("API server stopped", zap.Error(err))
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
