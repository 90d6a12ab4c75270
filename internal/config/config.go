package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken  string `env:"GITHUB_TOKEN"`
	GitHubAPIURL string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`

	// Feed
	Feed FeedOptions

	// Storage
	StorageType string `env:"STORAGE_TYPE" envDefault:"sqlite"` // "memory", "sqlite", "postgres" or "bolt"
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./repofeed.db"`
	PostgresURL string `env:"POSTGRES_URL"`
	BoltPath    string `env:"BOLT_PATH" envDefault:"./repofeed.bolt"`

	// API Server
	APIPort string `env:"API_PORT" envDefault:"8080"`
	APIHost string `env:"API_HOST" envDefault:"localhost"`

	// CLI
	APIEndpoint string `env:"API_ENDPOINT" envDefault:"http://localhost:8080"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// FeedOptions are the runtime-tunable settings of a repository feed
type FeedOptions struct {
	Account        string        `env:"FEED_ACCOUNT" envDefault:"basem3sam" json:"account"`
	PageSize       int           `env:"FEED_PAGE_SIZE" envDefault:"9" json:"page_size"`
	Sort           string        `env:"FEED_SORT" envDefault:"updated" json:"sort"`
	Direction      string        `env:"FEED_DIRECTION" envDefault:"desc" json:"direction"`
	CacheKey       string        `env:"FEED_CACHE_KEY" envDefault:"github_repos_enhanced_cache" json:"cache_key"`
	CacheTTL       time.Duration `env:"FEED_CACHE_TTL" envDefault:"15m" json:"cache_ttl"`
	CacheVersion   string        `env:"FEED_CACHE_VERSION" envDefault:"2.0" json:"cache_version"`
	MaxAttempts    int           `env:"FEED_MAX_ATTEMPTS" envDefault:"3" json:"max_attempts"`
	RetryBackoff   time.Duration `env:"FEED_RETRY_BACKOFF" envDefault:"1s" json:"retry_backoff"`
	RequestTimeout time.Duration `env:"FEED_REQUEST_TIMEOUT" envDefault:"10s" json:"request_timeout"`
	OfflineCache   bool          `env:"FEED_OFFLINE_CACHE" envDefault:"true" json:"offline_cache"`
	Analytics      bool          `env:"FEED_ANALYTICS" envDefault:"true" json:"analytics"`
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// DefaultFeedOptions returns the feed defaults without consulting the environment
func DefaultFeedOptions() FeedOptions {
	return FeedOptions{
		Account:        "basem3sam",
		PageSize:       9,
		Sort:           "updated",
		Direction:      "desc",
		CacheKey:       "github_repos_enhanced_cache",
		CacheTTL:       15 * time.Minute,
		CacheVersion:   "2.0",
		MaxAttempts:    3,
		RetryBackoff:   time.Second,
		RequestTimeout: 10 * time.Second,
		OfflineCache:   true,
		Analytics:      true,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StorageType {
	case "memory", "sqlite", "bolt":
	case "postgres":
		if c.PostgresURL == "" {
			return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
		}
	default:
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'memory', 'sqlite', 'postgres' or 'bolt'"}
	}
	if c.GitHubAPIURL == "" {
		return &ConfigError{Field: "GITHUB_API_URL", Message: "must not be empty"}
	}
	return c.Feed.Validate()
}

var validSorts = map[string]bool{
	"created":   true,
	"updated":   true,
	"pushed":    true,
	"full_name": true,
}

// Validate validates the feed options
func (o FeedOptions) Validate() error {
	if o.Account == "" {
		return &ConfigError{Field: "account", Message: "account name is required"}
	}
	if o.PageSize < 1 || o.PageSize > 100 {
		return &ConfigError{Field: "page_size", Message: "must be between 1 and 100"}
	}
	if !validSorts[o.Sort] {
		return &ConfigError{Field: "sort", Message: "must be one of created, updated, pushed, full_name"}
	}
	if o.Direction != "asc" && o.Direction != "desc" {
		return &ConfigError{Field: "direction", Message: "must be 'asc' or 'desc'"}
	}
	if o.CacheKey == "" {
		return &ConfigError{Field: "cache_key", Message: "must not be empty"}
	}
	if o.CacheTTL <= 0 {
		return &ConfigError{Field: "cache_ttl", Message: "must be positive"}
	}
	if o.MaxAttempts < 1 {
		return &ConfigError{Field: "max_attempts", Message: "must be at least 1"}
	}
	if o.RetryBackoff < 0 {
		return &ConfigError{Field: "retry_backoff", Message: "must not be negative"}
	}
	if o.RequestTimeout <= 0 {
		return &ConfigError{Field: "request_timeout", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
