package aggregator

import (
	"context"
	"sort"

	"github.com/kurihiro0119/repository-feed/internal/domain"
)

// Loader produces the repository list a summary is computed over
type Loader interface {
	Load(ctx context.Context) (*domain.FeedResult, error)
}

// Aggregator defines the interface for aggregating a repository feed
type Aggregator interface {
	// Summarize loads the feed and aggregates it
	Summarize(ctx context.Context, account string) (*domain.Summary, error)
}

// aggregator implements the Aggregator interface
type aggregator struct {
	loader Loader
}

// NewAggregator creates a new aggregator
func NewAggregator(loader Loader) Aggregator {
	return &aggregator{
		loader: loader,
	}
}

// Summarize loads the feed and aggregates it
func (a *aggregator) Summarize(ctx context.Context, account string) (*domain.Summary, error) {
	result, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeRepositories(account, result.Repositories), nil
}

// SummarizeRepositories totals repos and groups them by primary language.
// Languages are ordered by repository count, then stars, then name.
func SummarizeRepositories(account string, repos []*domain.Repository) *domain.Summary {
	summary := &domain.Summary{
		Account:   account,
		Languages: []domain.LanguageStat{},
	}

	byLanguage := make(map[string]*domain.LanguageStat)
	var mostStarred, recent *domain.Repository

	for _, r := range repos {
		summary.TotalRepos++
		summary.TotalStars += r.StargazersCount
		summary.TotalForks += r.ForksCount
		summary.TotalWatchers += r.WatchersCount
		summary.TotalOpenIssues += r.OpenIssuesCount

		lang := r.GetLanguage()
		if lang == "" {
			lang = "Other"
		}
		stat, ok := byLanguage[lang]
		if !ok {
			stat = &domain.LanguageStat{Language: lang}
			byLanguage[lang] = stat
		}
		stat.Repos++
		stat.Stars += r.StargazersCount

		if mostStarred == nil || r.StargazersCount > mostStarred.StargazersCount {
			mostStarred = r
		}
		if recent == nil || r.UpdatedAt.After(recent.UpdatedAt) {
			recent = r
		}
	}

	for _, stat := range byLanguage {
		summary.Languages = append(summary.Languages, *stat)
	}
	sort.Slice(summary.Languages, func(i, j int) bool {
		a, b := summary.Languages[i], summary.Languages[j]
		if a.Repos != b.Repos {
			return a.Repos > b.Repos
		}
		if a.Stars != b.Stars {
			return a.Stars > b.Stars
		}
		return a.Language < b.Language
	})

	if mostStarred != nil {
		summary.MostStarred = mostStarred.Name
	}
	if recent != nil {
		summary.RecentlyUpdated = recent.Name
	}

	return summary
}
