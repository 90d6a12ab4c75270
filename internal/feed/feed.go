// Package feed loads an account's repository list for rendering, preferring a
// fresh cache entry over the network and retrying transient failures.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kurihiro0119/repository-feed/internal/analytics"
	"github.com/kurihiro0119/repository-feed/internal/cache"
	"github.com/kurihiro0119/repository-feed/internal/collector"
	"github.com/kurihiro0119/repository-feed/internal/config"
	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
)

// ErrLoadInProgress is returned when Load or Refresh is called while another load runs
var ErrLoadInProgress = &apperrors.AppError{
	Code:    apperrors.ErrCodeInProgress,
	Message: "load already in progress",
}

// WaitFunc blocks for d or until ctx is done
type WaitFunc func(ctx context.Context, d time.Duration) error

// Feed is a repository feed for one configured account.
// A Feed allows one load at a time; it is safe for concurrent use.
type Feed struct {
	collector collector.Collector
	cache     *cache.Cache
	tracker   analytics.Tracker
	logger    *zap.Logger
	now       func() time.Time
	wait      WaitFunc
	newID     func() string

	mu     sync.Mutex
	opts   config.FeedOptions
	state  domain.State
	cancel context.CancelFunc
}

// Option configures a Feed
type Option func(*Feed)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Feed) { f.logger = logger }
}

// WithTracker sets the analytics tracker used when analytics are enabled
func WithTracker(t analytics.Tracker) Option {
	return func(f *Feed) { f.tracker = t }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// WithWait replaces the retry backoff sleep
func WithWait(wait WaitFunc) Option {
	return func(f *Feed) { f.wait = wait }
}

// New creates a feed. The cache is consulted only while the offline cache option is on.
func New(opts config.FeedOptions, coll collector.Collector, c *cache.Cache, options ...Option) (*Feed, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f := &Feed{
		collector: coll,
		cache:     c,
		tracker:   analytics.Nop{},
		logger:    zap.NewNop(),
		now:       time.Now,
		wait:      sleepContext,
		newID:     func() string { return uuid.New().String() },
		opts:      opts,
		state:     domain.State{Phase: domain.PhaseIdle},
	}
	for _, o := range options {
		o(f)
	}
	return f, nil
}

// Load returns the processed repository list, from cache when a valid entry
// exists and from the network otherwise.
func (f *Feed) Load(ctx context.Context) (*domain.FeedResult, error) {
	return f.run(ctx, false)
}

// Refresh deletes the cached entry and loads from the network. The delete
// happens only once this call holds the load guard.
func (f *Feed) Refresh(ctx context.Context) (*domain.FeedResult, error) {
	return f.run(ctx, true)
}

func (f *Feed) run(ctx context.Context, invalidate bool) (*domain.FeedResult, error) {
	f.mu.Lock()
	if f.state.IsLoading {
		f.mu.Unlock()
		f.logger.Info("GitHub load already in progress")
		return nil, ErrLoadInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	opts := f.opts
	requestID := f.newID()
	f.begin(requestID, cancel)
	f.mu.Unlock()

	defer func() {
		cancel()
		f.mu.Lock()
		f.state.IsLoading = false
		f.cancel = nil
		f.mu.Unlock()
	}()

	if invalidate {
		if err := f.cache.Invalidate(ctx, opts.CacheKey); err != nil {
			f.logger.Warn("failed to invalidate GitHub cache", zap.Error(err))
		}
	}
	return f.load(ctx, opts, requestID)
}

// Cancel stops the in-flight load, if any. The load resolves as CANCELLED and
// writes nothing to the cache.
func (f *Feed) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel == nil {
		return false
	}
	f.cancel()
	return true
}

// ClearCache deletes the cached entry without loading
func (f *Feed) ClearCache(ctx context.Context) error {
	f.mu.Lock()
	key := f.opts.CacheKey
	f.mu.Unlock()

	return f.cache.Invalidate(ctx, key)
}

// State returns a snapshot of the load state
func (f *Feed) State() domain.State {
	f.mu.Lock()
	s := f.state
	f.mu.Unlock()

	if s.LastUpdate != nil {
		t := *s.LastUpdate
		s.LastUpdate = &t
	}
	if rl, ok := f.collector.RateLimit(); ok {
		s.RateLimit = rl
	}
	return s
}

// Config returns the current options
func (f *Feed) Config() config.FeedOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

// UpdateConfig applies patch to the options. A running load keeps the options it started with.
func (f *Feed) UpdateConfig(patch config.Patch) (config.FeedOptions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := patch.Apply(f.opts)
	if err != nil {
		return f.opts, err
	}
	f.opts = next
	return next, nil
}

// begin marks a load as started. Callers hold f.mu.
func (f *Feed) begin(requestID string, cancel context.CancelFunc) {
	f.cancel = cancel
	f.state.IsLoading = true
	f.state.HasError = false
	f.state.LastError = ""
	f.state.Phase = domain.PhaseCacheCheck
	f.state.RequestID = requestID
	f.state.Attempts = 0
}

func (f *Feed) load(ctx context.Context, opts config.FeedOptions, requestID string) (*domain.FeedResult, error) {
	logger := f.logger.With(zap.String("request_id", requestID), zap.String("account", opts.Account))
	params := cache.Params{
		Key:     opts.CacheKey,
		Version: opts.CacheVersion,
		Account: opts.Account,
		TTL:     opts.CacheTTL,
	}

	if opts.OfflineCache {
		entry, err := f.cache.Get(ctx, params)
		if err != nil {
			logger.Warn("failed to read GitHub cache", zap.Error(err))
		}
		if entry != nil {
			logger.Info("loading GitHub repos from cache", zap.Int("count", len(entry.Data)))
			result := &domain.FeedResult{
				Repositories: entry.Data,
				Source:       domain.SourceCache,
				FetchedAt:    entry.Timestamp,
				RequestID:    requestID,
			}
			f.succeed(result, 0)
			f.track(opts, analytics.LoadEvent{Status: analytics.LoadSuccess, RepoCount: len(result.Repositories), Source: string(result.Source)})
			return result, nil
		}
	}

	req := domain.FeedRequest{
		ID:          requestID,
		Account:     opts.Account,
		PageSize:    opts.PageSize,
		Page:        1,
		Sort:        opts.Sort,
		Direction:   opts.Direction,
		MaxAttempts: opts.MaxAttempts,
	}

	repos, attempts, err := f.fetchWithRetry(ctx, logger, opts, req)
	if err == nil && ctx.Err() != nil {
		err = apperrors.NewCancelledError(ctx.Err())
	}
	if err != nil {
		f.fail(err, attempts)
		if apperrors.IsCancelled(err) {
			logger.Info("GitHub load cancelled", zap.Int("attempts", attempts))
		} else {
			logger.Error("GitHub API error", zap.Int("attempts", attempts), zap.Error(err))
			f.track(opts, analytics.LoadEvent{Status: analytics.LoadError, Attempts: attempts, Error: err.Error()})
		}
		return nil, err
	}

	processed := Process(repos)

	if opts.OfflineCache {
		if err := f.cache.Put(ctx, params, processed); err != nil {
			logger.Warn("failed to cache GitHub data", zap.Error(err))
		}
	}

	result := &domain.FeedResult{
		Repositories: processed,
		Source:       domain.SourceNetwork,
		FetchedAt:    f.now(),
		RequestID:    requestID,
	}
	f.succeed(result, attempts)
	f.track(opts, analytics.LoadEvent{Status: analytics.LoadSuccess, RepoCount: len(processed), Source: string(result.Source), Attempts: attempts})
	logger.Info("loaded GitHub repositories", zap.Int("count", len(processed)), zap.Int("attempts", attempts))

	return result, nil
}

// fetchWithRetry runs at most opts.MaxAttempts sequential attempts. The delay
// before attempt n+1 is RetryBackoff*n.
func (f *Feed) fetchWithRetry(ctx context.Context, logger *zap.Logger, opts config.FeedOptions, req domain.FeedRequest) ([]*domain.Repository, int, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, apperrors.NewCancelledError(err)
		}

		f.setPhase(domain.PhaseFetching, attempt)
		req.Attempt = attempt

		attemptCtx, cancelAttempt := context.WithTimeout(ctx, opts.RequestTimeout)
		repos, err := f.collector.ListRepositories(attemptCtx, req)
		cancelAttempt()
		if err == nil {
			return repos, attempt, nil
		}

		err = normalize(ctx, err)
		if !apperrors.IsRetryable(err) || attempt >= opts.MaxAttempts {
			return nil, attempt, err
		}

		delay := opts.RetryBackoff * time.Duration(attempt)
		logger.Info("retrying GitHub request",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", opts.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		f.setPhase(domain.PhaseRetrying, attempt)

		if werr := f.wait(ctx, delay); werr != nil {
			return nil, attempt, apperrors.NewCancelledError(werr)
		}
	}
}

// normalize makes every attempt failure an AppError. A failure observed after
// the load's own context ended is a cancellation, whatever the transport said.
func normalize(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apperrors.NewCancelledError(ctxErr)
	}
	if apperrors.CodeOf(err) == apperrors.ErrCodeInternal {
		return apperrors.NewNetworkError("failed to list repositories", err)
	}
	return err
}

func (f *Feed) setPhase(p domain.Phase, attempts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Phase = p
	f.state.Attempts = attempts
}

func (f *Feed) succeed(result *domain.FeedResult, attempts int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lastUpdate := result.FetchedAt
	f.state.Phase = domain.PhaseDone
	f.state.HasError = false
	f.state.LastError = ""
	f.state.LastUpdate = &lastUpdate
	f.state.TotalCount = len(result.Repositories)
	f.state.Attempts = attempts
	f.state.Source = result.Source
}

func (f *Feed) fail(err error, attempts int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.Attempts = attempts
	f.state.LastError = string(apperrors.CodeOf(err))
	if apperrors.IsCancelled(err) {
		f.state.Phase = domain.PhaseIdle
		f.state.HasError = false
		return
	}
	f.state.Phase = domain.PhaseFailed
	f.state.HasError = true
}

// TrackView records that count repositories were rendered as cards. It is a
// no-op while analytics are off.
func (f *Feed) TrackView(count int) {
	opts := f.Config()
	if !opts.Analytics {
		return
	}
	f.tracker.TrackView(analytics.ViewEvent{Account: opts.Account, Count: count})
}

func (f *Feed) track(opts config.FeedOptions, event analytics.LoadEvent) {
	if !opts.Analytics {
		return
	}
	event.Account = opts.Account
	f.tracker.TrackLoad(event)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
