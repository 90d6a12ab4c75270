package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/repository-feed/internal/config"
	"github.com/kurihiro0119/repository-feed/internal/domain"
)

const reposJSON = `[
  {"id": 1, "name": "alpha", "stargazers_count": 1, "updated_at": "2024-02-03T04:05:06Z"},
  {"id": 2, "name": "beta", "stargazers_count": 5, "updated_at": "2024-01-03T04:05:06Z"},
  {"id": 3, "name": "gamma", "stargazers_count": 9, "updated_at": "2024-01-03T04:05:06Z", "fork": true}
]`

func testConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	return &config.Config{
		GitHubAPIURL: apiURL,
		Feed:         config.DefaultFeedOptions(),
		StorageType:  "bolt",
		BoltPath:     filepath.Join(t.TempDir(), "feed.bolt"),
		LogLevel:     "info",
	}
}

func TestNew_LoadsThroughCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/users/basem3sam/repos", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reposJSON))
	}))
	defer srv.Close()

	a, err := New(testConfig(t, srv.URL), nil)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	first, err := a.Feed.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceNetwork, first.Source)
	require.Len(t, first.Repositories, 2)
	assert.Equal(t, "beta", first.Repositories[0].Name)

	second, err := a.Feed.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCache, second.Source)
	assert.Equal(t, int32(1), calls.Load())

	summary, err := a.Aggregator.Summarize(ctx, "basem3sam")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalRepos)
	assert.Equal(t, 6, summary.TotalStars)
}

func TestNew_RejectsInvalidFeedOptions(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Feed.PageSize = 0

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestOpenStorage(t *testing.T) {
	store, err := OpenStorage(&config.Config{StorageType: "memory"})
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", []byte("v")))
	assert.NoError(t, store.Close())

	store, err = OpenStorage(&config.Config{StorageType: "bolt", BoltPath: filepath.Join(t.TempDir(), "x.bolt")})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
