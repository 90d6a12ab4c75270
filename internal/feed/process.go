package feed

import (
	"sort"

	"github.com/kurihiro0119/repository-feed/internal/domain"
)

// Process drops forks and archived repositories and orders the rest by stars,
// then by last update, newest first. Entries that tie on both keep their
// response order. The input slice is not modified.
func Process(repos []*domain.Repository) []*domain.Repository {
	out := make([]*domain.Repository, 0, len(repos))
	for _, r := range repos {
		if r == nil || r.Fork || r.Archived {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StargazersCount != out[j].StargazersCount {
			return out[i].StargazersCount > out[j].StargazersCount
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out
}
