package collector

import (
	"sync"
	"time"
)

// LowRateLimitThreshold is the remaining-quota level below which a warning is logged
const LowRateLimitThreshold = 10

// RateLimiter tracks the GitHub API quota reported in response headers.
// It is advisory: a low quota is reported, never waited out.
type RateLimiter interface {
	CheckLimit() (remaining int, resetTime time.Time, known bool)
	// UpdateLimit records the latest quota and reports whether it is below the threshold
	UpdateLimit(remaining int, resetTime time.Time) (low bool)
}

// githubRateLimiter implements RateLimiter for GitHub API
type githubRateLimiter struct {
	mu        sync.Mutex
	known     bool
	remaining int
	resetTime time.Time
	threshold int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() RateLimiter {
	return &githubRateLimiter{threshold: LowRateLimitThreshold}
}

// CheckLimit returns the current rate limit status
func (r *githubRateLimiter) CheckLimit() (remaining int, resetTime time.Time, known bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining, r.resetTime, r.known
}

// UpdateLimit updates the rate limit from API response headers
func (r *githubRateLimiter) UpdateLimit(remaining int, resetTime time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known = true
	r.remaining = remaining
	r.resetTime = resetTime
	return remaining < r.threshold
}
