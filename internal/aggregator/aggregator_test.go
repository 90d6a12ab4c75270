package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/repository-feed/internal/domain"
)

func strPtr(s string) *string { return &s }

type stubLoader struct {
	result *domain.FeedResult
	err    error
}

func (s stubLoader) Load(context.Context) (*domain.FeedResult, error) {
	return s.result, s.err
}

func testRepos() []*domain.Repository {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*domain.Repository{
		{Name: "site", Language: strPtr("JavaScript"), StargazersCount: 10, ForksCount: 2, WatchersCount: 10, UpdatedAt: day},
		{Name: "api", Language: strPtr("Go"), StargazersCount: 7, ForksCount: 1, OpenIssuesCount: 3, UpdatedAt: day.AddDate(0, 1, 0)},
		{Name: "cli", Language: strPtr("Go"), StargazersCount: 1, UpdatedAt: day},
		{Name: "notes", StargazersCount: 0, UpdatedAt: day},
	}
}

func TestSummarizeRepositories(t *testing.T) {
	s := SummarizeRepositories("octocat", testRepos())

	assert.Equal(t, "octocat", s.Account)
	assert.Equal(t, 4, s.TotalRepos)
	assert.Equal(t, 18, s.TotalStars)
	assert.Equal(t, 3, s.TotalForks)
	assert.Equal(t, 10, s.TotalWatchers)
	assert.Equal(t, 3, s.TotalOpenIssues)
	assert.Equal(t, "site", s.MostStarred)
	assert.Equal(t, "api", s.RecentlyUpdated)
	assert.Equal(t, []domain.LanguageStat{
		{Language: "Go", Repos: 2, Stars: 8},
		{Language: "JavaScript", Repos: 1, Stars: 10},
		{Language: "Other", Repos: 1, Stars: 0},
	}, s.Languages)
}

func TestSummarizeRepositories_Empty(t *testing.T) {
	s := SummarizeRepositories("octocat", nil)
	assert.Zero(t, s.TotalRepos)
	assert.NotNil(t, s.Languages)
	assert.Empty(t, s.MostStarred)
}

func TestSummarize(t *testing.T) {
	agg := NewAggregator(stubLoader{result: &domain.FeedResult{Repositories: testRepos()}})
	s, err := agg.Summarize(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalRepos)

	boom := errors.New("boom")
	_, err = NewAggregator(stubLoader{err: boom}).Summarize(context.Background(), "octocat")
	assert.ErrorIs(t, err, boom)
}
