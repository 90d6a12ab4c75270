package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
	"github.com/kurihiro0119/repository-feed/internal/storage"
)

// Params identify which cache entry is acceptable for the current configuration
type Params struct {
	Key     string
	Version string
	Account string
	TTL     time.Duration
}

// Cache stores one processed repository list per key in a storage.Storage
type Cache struct {
	store  storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache over store
func New(store storage.Storage, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Valid reports whether entry may be served under p at time now.
// An entry whose age equals the TTL is already expired.
func Valid(entry *domain.CacheEntry, p Params, now time.Time) bool {
	if entry == nil {
		return false
	}
	age := now.Sub(entry.Timestamp)
	return age < p.TTL && entry.Version == p.Version && entry.Username == p.Account
}

// Get returns the stored entry if it is valid, or nil. Invalid and unreadable
// entries are purged. Storage failures come back as STORAGE_ERROR.
func (c *Cache) Get(ctx context.Context, p Params) (*domain.CacheEntry, error) {
	raw, err := c.store.Get(ctx, p.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read cache", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", p.Key), zap.Error(err))
		return nil, c.purge(ctx, p.Key)
	}

	if !Valid(&entry, p, c.now()) {
		c.logger.Debug("purging stale cache entry",
			zap.String("key", p.Key),
			zap.String("version", entry.Version),
			zap.String("account", entry.Username),
			zap.Time("timestamp", entry.Timestamp))
		return nil, c.purge(ctx, p.Key)
	}

	return &entry, nil
}

// Put stores repos as a fresh entry stamped with the current time
func (c *Cache) Put(ctx context.Context, p Params, repos []*domain.Repository) error {
	if repos == nil {
		repos = []*domain.Repository{}
	}
	entry := domain.CacheEntry{
		Data:      repos,
		Timestamp: c.now().UTC(),
		Version:   p.Version,
		Username:  p.Account,
	}
	raw, err := json.Marshal(&entry)
	if err != nil {
		return apperrors.NewStorageError("failed to encode cache entry", err)
	}
	if err := c.store.Set(ctx, p.Key, raw); err != nil {
		return apperrors.NewStorageError("failed to write cache", err)
	}
	return nil
}

// Invalidate deletes the entry stored under key
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.purge(ctx, key)
}

func (c *Cache) purge(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return apperrors.NewStorageError("failed to purge cache", err)
	}
	return nil
}
