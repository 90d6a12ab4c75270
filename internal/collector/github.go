package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v55/github"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
)

const headerRateRemaining = "X-RateLimit-Remaining"

// githubCollector implements Collector using GitHub API
type githubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewGitHubCollector creates a new GitHub collector. An empty token makes
// unauthenticated requests; an empty baseURL uses the public API.
func NewGitHubCollector(token, baseURL string, logger *zap.Logger) (Collector, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := github.NewClient(httpClient)

	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &githubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(),
		logger:      logger,
		tracer:      otel.Tracer("github.com/kurihiro0119/repository-feed/internal/collector"),
	}, nil
}

// ListRepositories retrieves one page of public repositories for a user
func (c *githubCollector) ListRepositories(ctx context.Context, req domain.FeedRequest) ([]*domain.Repository, error) {
	ctx, span := c.tracer.Start(ctx, "github.ListRepositories", trace.WithAttributes(
		attribute.String("github.account", req.Account),
		attribute.Int("feed.attempt", req.Attempt),
		attribute.String("feed.request_id", req.ID),
	))
	defer span.End()

	opts := &github.RepositoryListOptions{
		Sort:      req.Sort,
		Direction: req.Direction,
		ListOptions: github.ListOptions{
			PerPage: req.PageSize,
			Page:    req.Page,
		},
	}

	repos, resp, err := c.client.Repositories.List(ctx, req.Account, opts)
	c.updateRateLimitFromResponse(resp, req.Account)
	if err != nil {
		appErr := classifyError(err, req.Account)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(appErr.Code))
		return nil, appErr
	}

	out := make([]*domain.Repository, 0, len(repos))
	for _, repo := range repos {
		out = append(out, toDomain(repo))
	}
	span.SetAttributes(attribute.Int("github.repos", len(out)))

	return out, nil
}

// RateLimit returns the last quota seen
func (c *githubCollector) RateLimit() (*domain.RateLimit, bool) {
	remaining, reset, known := c.rateLimiter.CheckLimit()
	if !known {
		return nil, false
	}
	return &domain.RateLimit{Remaining: remaining, Reset: reset}, true
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *githubCollector) updateRateLimitFromResponse(resp *github.Response, account string) {
	if resp == nil || resp.Response == nil || resp.Header.Get(headerRateRemaining) == "" {
		return
	}
	if c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time) {
		c.logger.Warn("GitHub API rate limit low",
			zap.String("account", account),
			zap.Int("remaining", resp.Rate.Remaining),
			zap.Time("reset", resp.Rate.Reset.Time))
	}
}

// classifyError maps transport and API failures onto the feed's error taxonomy
func classifyError(err error, account string) *apperrors.AppError {
	if errors.Is(err, context.Canceled) {
		return apperrors.NewCancelledError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("request timeout", err)
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return apperrors.NewRateLimitedError("GitHub API rate limit exceeded", err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return apperrors.NewRateLimitedError("GitHub API secondary rate limit exceeded", err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch status := respErr.Response.StatusCode; {
		case status == http.StatusNotFound:
			return apperrors.NewNotFoundError(fmt.Sprintf("GitHub user %q", account))
		case status == http.StatusForbidden || status == http.StatusTooManyRequests:
			return apperrors.NewRateLimitedError("GitHub API rate limit exceeded", err)
		case status == http.StatusUnauthorized:
			return apperrors.NewUnauthorizedError("GitHub rejected the token", err)
		default:
			return apperrors.NewNetworkError(fmt.Sprintf("GitHub API returned HTTP %d", status), err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTimeoutError("request timeout", err)
	}

	return apperrors.NewNetworkError("failed to list repositories", err)
}

func toDomain(repo *github.Repository) *domain.Repository {
	r := &domain.Repository{
		ID:              repo.GetID(),
		Name:            repo.GetName(),
		FullName:        repo.GetFullName(),
		HTMLURL:         repo.GetHTMLURL(),
		Description:     repo.Description,
		Language:        repo.Language,
		StargazersCount: repo.GetStargazersCount(),
		ForksCount:      repo.GetForksCount(),
		WatchersCount:   repo.GetWatchersCount(),
		OpenIssuesCount: repo.GetOpenIssuesCount(),
		CreatedAt:       repo.GetCreatedAt().Time,
		UpdatedAt:       repo.GetUpdatedAt().Time,
		Archived:        repo.GetArchived(),
		Fork:            repo.GetFork(),
		Topics:          repo.Topics,
	}
	if repo.GetHomepage() != "" {
		r.Homepage = repo.Homepage
	}
	if r.Topics == nil {
		r.Topics = []string{}
	}
	return r
}
