package domain

import "time"

// Phase is the position of the feed in its load cycle
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCacheCheck Phase = "cache_check"
	PhaseFetching   Phase = "fetching"
	PhaseRetrying   Phase = "retrying"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Source tells where a result came from
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

// State is the observable load state of a feed
type State struct {
	Phase      Phase      `json:"phase"`
	IsLoading  bool       `json:"is_loading"`
	HasError   bool       `json:"has_error"`
	LastError  string     `json:"last_error,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	TotalCount int        `json:"total_count"`
	Attempts   int        `json:"attempts"`
	Source     Source     `json:"source,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
	RateLimit  *RateLimit `json:"rate_limit,omitempty"`
}

// RateLimit is the last quota reported by the GitHub API
type RateLimit struct {
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// FeedResult is a successful load outcome
type FeedResult struct {
	Repositories []*Repository `json:"repositories"`
	Source       Source        `json:"source"`
	FetchedAt    time.Time     `json:"fetched_at"`
	RequestID    string        `json:"request_id"`
}

// Summary aggregates a loaded repository list
type Summary struct {
	Account         string         `json:"account"`
	TotalRepos      int            `json:"total_repos"`
	TotalStars      int            `json:"total_stars"`
	TotalForks      int            `json:"total_forks"`
	TotalWatchers   int            `json:"total_watchers"`
	TotalOpenIssues int            `json:"total_open_issues"`
	Languages       []LanguageStat `json:"languages"`
	MostStarred     string         `json:"most_starred,omitempty"`
	RecentlyUpdated string         `json:"recently_updated,omitempty"`
}

// LanguageStat counts repositories per primary language
type LanguageStat struct {
	Language string `json:"language"`
	Repos    int    `json:"repos"`
	Stars    int    `json:"stars"`
}
