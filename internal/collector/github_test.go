package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
)

const reposJSON = `[
  {
    "id": 1,
    "name": "portfolio",
    "full_name": "octocat/portfolio",
    "html_url": "https://github.com/octocat/portfolio",
    "description": "My site",
    "language": "JavaScript",
    "stargazers_count": 12,
    "forks_count": 3,
    "watchers_count": 12,
    "open_issues_count": 1,
    "created_at": "2023-01-02T03:04:05Z",
    "updated_at": "2024-02-03T04:05:06Z",
    "homepage": "https://octocat.dev",
    "archived": false,
    "fork": false,
    "topics": ["web", "portfolio"]
  },
  {
    "id": 2,
    "name": "forked-lib",
    "full_name": "octocat/forked-lib",
    "html_url": "https://github.com/octocat/forked-lib",
    "description": null,
    "language": null,
    "stargazers_count": 0,
    "created_at": "2023-01-02T03:04:05Z",
    "updated_at": "2023-06-03T04:05:06Z",
    "homepage": "",
    "fork": true
  }
]`

func request() domain.FeedRequest {
	return domain.FeedRequest{
		ID:        "req-1",
		Account:   "octocat",
		PageSize:  9,
		Page:      1,
		Sort:      "updated",
		Direction: "desc",
		Attempt:   1,
	}
}

func newTestCollector(t *testing.T, handler http.HandlerFunc) (Collector, *observer.ObservedLogs) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	c, err := NewGitHubCollector("", srv.URL, zap.New(core))
	require.NoError(t, err)
	return c, logs
}

func TestListRepositories(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/repos", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "updated", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("direction"))
		assert.Equal(t, "9", q.Get("per_page"))
		assert.Equal(t, "1", q.Get("page"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, reposJSON)
	})

	repos, err := c.ListRepositories(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, repos, 2)

	first := repos[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "portfolio", first.Name)
	assert.Equal(t, "My site", first.GetDescription())
	assert.Equal(t, "JavaScript", first.GetLanguage())
	assert.Equal(t, 12, first.StargazersCount)
	assert.Equal(t, 3, first.ForksCount)
	assert.Equal(t, 1, first.OpenIssuesCount)
	assert.Equal(t, "https://octocat.dev", first.GetHomepage())
	assert.Equal(t, []string{"web", "portfolio"}, first.Topics)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), first.UpdatedAt.UTC())

	second := repos[1]
	assert.True(t, second.Fork)
	assert.Nil(t, second.Description)
	assert.Nil(t, second.Language)
	assert.Nil(t, second.Homepage)
	assert.Empty(t, second.Topics)

	_, known := c.RateLimit()
	assert.False(t, known)
}

func TestListRepositories_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		want    apperrors.ErrCode
	}{
		{"not found", http.StatusNotFound, nil, apperrors.ErrCodeNotFound},
		{"rate limited", http.StatusForbidden, map[string]string{
			"X-RateLimit-Limit":     "60",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
		}, apperrors.ErrCodeRateLimited},
		{"too many requests", http.StatusTooManyRequests, nil, apperrors.ErrCodeRateLimited},
		{"unauthorized", http.StatusUnauthorized, nil, apperrors.ErrCodeUnauthorized},
		{"server error", http.StatusInternalServerError, nil, apperrors.ErrCodeNetwork},
		{"bad gateway", http.StatusBadGateway, nil, apperrors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"message":"nope"}`)
			})

			_, err := c.ListRepositories(context.Background(), request())
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.CodeOf(err))
		})
	}
}

func TestListRepositories_Timeout(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListRepositories(ctx, request())
	assert.True(t, apperrors.IsTimeout(err), "got %v", err)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestListRepositories_Cancelled(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListRepositories(ctx, request())
	assert.True(t, apperrors.IsCancelled(err), "got %v", err)
}

func TestListRepositories_LowRateLimitWarns(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	c, logs := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "4")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		fmt.Fprint(w, "[]")
	})

	repos, err := c.ListRepositories(context.Background(), request())
	require.NoError(t, err)
	assert.Empty(t, repos)

	warnings := logs.FilterMessage("GitHub API rate limit low").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)

	rl, known := c.RateLimit()
	require.True(t, known)
	assert.Equal(t, 4, rl.Remaining)
	assert.True(t, rl.Reset.Equal(reset))
}

func TestListRepositories_HealthyRateLimitIsQuiet(t *testing.T) {
	c, logs := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "59")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		fmt.Fprint(w, "[]")
	})

	_, err := c.ListRepositories(context.Background(), request())
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("GitHub API rate limit low").Len())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()

	_, _, known := rl.CheckLimit()
	assert.False(t, known)

	reset := time.Now().Add(time.Hour)
	assert.False(t, rl.UpdateLimit(LowRateLimitThreshold, reset))
	assert.True(t, rl.UpdateLimit(LowRateLimitThreshold-1, reset))

	remaining, gotReset, known := rl.CheckLimit()
	assert.True(t, known)
	assert.Equal(t, LowRateLimitThreshold-1, remaining)
	assert.Equal(t, reset, gotReset)
}
