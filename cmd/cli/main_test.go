package main

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/repository-feed/internal/api"
	"github.com/kurihiro0119/repository-feed/internal/app"
	"github.com/kurihiro0119/repository-feed/internal/config"
)

func withFlags(t *testing.T, isRemote bool, pairs ...string) {
	t.Helper()
	remote, setPairs = isRemote, pairs
	t.Cleanup(func() { remote, setPairs = false, nil })
}

func newServer(t *testing.T) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := app.New(&config.Config{
		GitHubAPIURL: "http://127.0.0.1:1",
		Feed:         config.DefaultFeedOptions(),
		StorageType:  "memory",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(api.SetupRoutes(api.NewHandler(a.Feed, a.Aggregator), nil))
	t.Cleanup(srv.Close)
	t.Setenv("API_ENDPOINT", srv.URL)
	return a
}

func TestOpenSession_RemoteSetUpdatesServer(t *testing.T) {
	server := newServer(t)
	withFlags(t, true, "account=torvalds")

	s, err := openSession()
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.client)
	assert.Nil(t, s.local)
	assert.Equal(t, "torvalds", server.Feed.Config().Account)
}

func TestOpenSession_LocalSetStaysLocal(t *testing.T) {
	server := newServer(t)
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("LOG_LEVEL", "error")
	withFlags(t, false, "page_size=5")

	s, err := openSession()
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.local)
	assert.Equal(t, 5, s.local.Feed.Config().PageSize)
	assert.Equal(t, 9, server.Feed.Config().PageSize)
}

func TestOpenSession_RejectsUnknownOption(t *testing.T) {
	newServer(t)
	withFlags(t, true, "username=torvalds")

	_, err := openSession()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --set")
}
