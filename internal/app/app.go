// Package app assembles a repository feed from configuration.
package app

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kurihiro0119/repository-feed/internal/aggregator"
	"github.com/kurihiro0119/repository-feed/internal/analytics"
	"github.com/kurihiro0119/repository-feed/internal/cache"
	"github.com/kurihiro0119/repository-feed/internal/collector"
	"github.com/kurihiro0119/repository-feed/internal/config"
	"github.com/kurihiro0119/repository-feed/internal/feed"
	"github.com/kurihiro0119/repository-feed/internal/storage"
	"github.com/kurihiro0119/repository-feed/internal/storage/bolt"
	"github.com/kurihiro0119/repository-feed/internal/storage/memory"
	"github.com/kurihiro0119/repository-feed/internal/storage/postgres"
	"github.com/kurihiro0119/repository-feed/internal/storage/sqlite"
)

// App is a wired feed plus the resources it owns
type App struct {
	Feed       *feed.Feed
	Aggregator aggregator.Aggregator
	Logger     *zap.Logger

	store storage.Storage
}

// NewLogger builds a production zap logger at the given level
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// OpenStorage opens the backend named by cfg.StorageType
func OpenStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "memory":
		return memory.NewMemoryStorage(), nil
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	case "bolt":
		return bolt.NewBoltStorage(cfg.BoltPath)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

// New wires storage, cache, collector, tracker and feed. Close releases them.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := OpenStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	coll, err := collector.NewGitHubCollector(cfg.GitHubToken, cfg.GitHubAPIURL, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize collector: %w", err)
	}

	f, err := feed.New(cfg.Feed, coll, cache.New(store, logger),
		feed.WithLogger(logger),
		feed.WithTracker(analytics.NewLogTracker(logger)),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		Feed:       f,
		Aggregator: aggregator.NewAggregator(f),
		Logger:     logger,
		store:      store,
	}, nil
}

// Close cancels any in-flight load and closes storage
func (a *App) Close() error {
	a.Feed.Cancel()
	return a.store.Close()
}
