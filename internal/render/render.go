// Package render turns feed results into display-ready values for the CLI and API.
package render

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kurihiro0119/repository-feed/internal/domain"
)

const (
	// MaxDescriptionLength is the rune count after which descriptions are cut
	MaxDescriptionLength = 120
	// MaxTopics is how many topics a card shows
	MaxTopics = 3

	noDescription = "No description available."
)

var (
	separators = regexp.MustCompile(`[-_]`)
	wordStart  = regexp.MustCompile(`\b\w`)
	acronyms   = regexp.MustCompile(`(?i)\b(js|ts|api|ui|ux|db|css|html)\b`)
)

// Card is one repository prepared for display. LanguageColor is always set,
// falling back to DefaultLanguageColor.
type Card struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Language      string        `json:"language,omitempty"`
	LanguageColor LanguageColor `json:"language_color"`
	Stars         string        `json:"stars"`
	Forks         string        `json:"forks"`
	Watchers      string        `json:"watchers,omitempty"`
	OpenIssues    string        `json:"open_issues,omitempty"`
	Topics        []string      `json:"topics"`
	Created       string        `json:"created"`
	Updated       string        `json:"updated"`
	URL           string        `json:"url"`
	Homepage      string        `json:"homepage,omitempty"`
	Archived      bool          `json:"archived"`
}

// Cards builds a card per repository, keeping order
func Cards(repos []*domain.Repository, now time.Time) []Card {
	cards := make([]Card, 0, len(repos))
	for _, r := range repos {
		cards = append(cards, NewCard(r, now))
	}
	return cards
}

// NewCard builds the display form of r. Watchers and open issues are blank when zero.
func NewCard(r *domain.Repository, now time.Time) Card {
	c := Card{
		ID:            r.ID,
		Name:          r.Name,
		Title:         FormatName(r.Name),
		Description:   TruncateDescription(r.GetDescription()),
		Language:      r.GetLanguage(),
		LanguageColor: LanguageColorFor(r.GetLanguage()),
		Stars:         CompactCount(r.StargazersCount),
		Forks:         CompactCount(r.ForksCount),
		Topics:        Topics(r.Topics),
		Created:       RelativeDate(r.CreatedAt, now),
		Updated:       RelativeDate(r.UpdatedAt, now),
		URL:           r.HTMLURL,
		Homepage:      r.GetHomepage(),
		Archived:      r.Archived,
	}
	if r.WatchersCount > 0 {
		c.Watchers = CompactCount(r.WatchersCount)
	}
	if r.OpenIssuesCount > 0 {
		c.OpenIssues = CompactCount(r.OpenIssuesCount)
	}
	return c
}

// FormatName turns "my-api_tool" into "My API Tool"
func FormatName(name string) string {
	s := separators.ReplaceAllString(name, " ")
	s = wordStart.ReplaceAllStringFunc(s, strings.ToUpper)
	return acronyms.ReplaceAllStringFunc(s, strings.ToUpper)
}

// TruncateDescription cuts long descriptions and fills in empty ones
func TruncateDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return noDescription
	}
	runes := []rune(desc)
	if len(runes) > MaxDescriptionLength {
		return string(runes[:MaxDescriptionLength]) + "..."
	}
	return desc
}

// Topics returns at most MaxTopics topics
func Topics(topics []string) []string {
	if len(topics) > MaxTopics {
		topics = topics[:MaxTopics]
	}
	return append([]string{}, topics...)
}

// CompactCount renders counts above 999 as "1.2k"
func CompactCount(n int) string {
	if n > 999 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return strconv.Itoa(n)
}

// RelativeDate describes t relative to now in whole elapsed days
func RelativeDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	days := int(math.Abs(now.Sub(t).Hours()) / 24)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week") + " ago"
	case days < 365:
		return plural(days/30, "month") + " ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}
	return fmt.Sprintf("%d %s", n, unit)
}
