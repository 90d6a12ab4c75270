package domain

import "time"

// Repository represents a public GitHub repository as consumed by the feed
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	HTMLURL         string    `json:"html_url"`
	Description     *string   `json:"description,omitempty"`
	Language        *string   `json:"language,omitempty"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	WatchersCount   int       `json:"watchers_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Homepage        *string   `json:"homepage,omitempty"`
	Archived        bool      `json:"archived"`
	Fork            bool      `json:"fork"`
	Topics          []string  `json:"topics"`
}

// GetDescription returns the description, or "" when absent
func (r *Repository) GetDescription() string {
	if r == nil || r.Description == nil {
		return ""
	}
	return *r.Description
}

// GetLanguage returns the primary language, or "" when absent
func (r *Repository) GetLanguage() string {
	if r == nil || r.Language == nil {
		return ""
	}
	return *r.Language
}

// GetHomepage returns the homepage URL, or "" when absent
func (r *Repository) GetHomepage() string {
	if r == nil || r.Homepage == nil {
		return ""
	}
	return *r.Homepage
}

// CacheEntry is the persisted snapshot of a processed repository list
type CacheEntry struct {
	Data      []*Repository `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Username  string        `json:"username"`
}

// FeedRequest describes a single list request against the GitHub API
type FeedRequest struct {
	ID          string
	Account     string
	PageSize    int
	Page        int
	Sort        string
	Direction   string
	Attempt     int
	MaxAttempts int
}
