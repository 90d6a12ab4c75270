package collector

import (
	"context"

	"github.com/kurihiro0119/repository-feed/internal/domain"
)

// Collector defines the interface for collecting GitHub data
type Collector interface {
	// ListRepositories retrieves one page of an account's public repositories,
	// in the order the API returned them
	ListRepositories(ctx context.Context, req domain.FeedRequest) ([]*domain.Repository, error)

	// RateLimit returns the last quota seen, if any response carried one
	RateLimit() (*domain.RateLimit, bool)
}
