package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/repository-feed/internal/api"
	"github.com/kurihiro0119/repository-feed/internal/app"
	"github.com/kurihiro0119/repository-feed/internal/config"
	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
	"github.com/kurihiro0119/repository-feed/internal/render"
)

const reposJSON = `[
  {"id": 1, "name": "my-portfolio", "language": "Go", "stargazers_count": 1500, "updated_at": "2024-02-03T04:05:06Z", "topics": ["go", "web", "cli", "api"]},
  {"id": 2, "name": "old", "stargazers_count": 2, "updated_at": "2023-02-03T04:05:06Z", "archived": true}
]`

// newTestClient serves a real feed behind the real router, backed by a fake GitHub.
func newTestClient(t *testing.T, github http.HandlerFunc) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gh := httptest.NewServer(github)
	t.Cleanup(gh.Close)

	opts := config.DefaultFeedOptions()
	opts.Account = "octocat"
	opts.MaxAttempts = 1
	a, err := app.New(&config.Config{
		GitHubAPIURL: gh.URL,
		Feed:         opts,
		StorageType:  "memory",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(api.SetupRoutes(api.NewHandler(a.Feed, a.Aggregator), nil))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL)
}

func serveRepos(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(reposJSON))
}

func TestClient_Repos(t *testing.T) {
	c := newTestClient(t, serveRepos)

	require.NoError(t, c.HealthCheck())

	resp, err := c.GetRepos(true)
	require.NoError(t, err)
	require.Len(t, resp.Repositories, 1)
	assert.Equal(t, domain.SourceNetwork, resp.Source)
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, "My Portfolio", resp.Cards[0].Title)
	assert.Equal(t, "1.5k", resp.Cards[0].Stars)
	assert.Equal(t, []string{"go", "web", "cli"}, resp.Cards[0].Topics)
	assert.Equal(t, render.DefaultLanguageColor, resp.Cards[0].LanguageColor)

	resp, err = c.GetRepos(false)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCache, resp.Source)
	assert.Empty(t, resp.Cards)

	resp, err = c.Refresh(false)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceNetwork, resp.Source)

	state, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDone, state.Phase)
	assert.Equal(t, 1, state.TotalCount)

	summary, err := c.Summary()
	require.NoError(t, err)
	assert.Equal(t, "octocat", summary.Account)
	assert.Equal(t, 1500, summary.TotalStars)

	require.NoError(t, c.ClearCache())
	cancelled, err := c.Cancel()
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestClient_Config(t *testing.T) {
	c := newTestClient(t, serveRepos)

	opts, err := c.Config()
	require.NoError(t, err)
	assert.Equal(t, "octocat", opts.Account)

	ttl := config.Duration(time.Minute)
	account := "torvalds"
	opts, err = c.UpdateConfig(config.Patch{Account: &account, CacheTTL: &ttl})
	require.NoError(t, err)
	assert.Equal(t, "torvalds", opts.Account)
	assert.Equal(t, time.Minute, opts.CacheTTL)

	zero := 0
	_, err = c.UpdateConfig(config.Patch{PageSize: &zero})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.CodeOf(err))
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := c.GetRepos(false)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "GitHub user not found")

	state, err := c.State()
	require.NoError(t, err)
	assert.True(t, state.HasError)
	assert.Equal(t, domain.PhaseFailed, state.Phase)
}
