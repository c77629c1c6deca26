// Package snapshotcache keeps the last good feed snapshot per request shape
// and decides when it may still be served.
package snapshotcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"news-pulse/config"
	"news-pulse/models"
)

// ErrCacheMiss means there is no snapshot that may be served.
var ErrCacheMiss = errors.New("cache miss")

const DefaultStalenessCeiling = 5 * time.Minute

// Store is the backing key-value storage. Put must replace the entry for a
// key as a whole.
type Store interface {
	Put(ctx context.Context, key string, snap models.FeedSnapshot) error
	Load(ctx context.Context, key string) (models.FeedSnapshot, bool, error)
}

type Options struct {
	StalenessCeiling time.Duration
	Now              func() time.Time
}

type FallbackCache struct {
	store   Store
	ceiling time.Duration
	now     func() time.Time
}

func New(store Store, opts Options) *FallbackCache {
	if opts.StalenessCeiling <= 0 {
		opts.StalenessCeiling = DefaultStalenessCeiling
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FallbackCache{store: store, ceiling: opts.StalenessCeiling, now: opts.Now}
}

func (c *FallbackCache) StalenessCeiling() time.Duration { return c.ceiling }

// Store overwrites the snapshot kept for key.
func (c *FallbackCache) Store(ctx context.Context, key string, snap models.FeedSnapshot) error {
	snap.Key = key
	if err := c.store.Put(ctx, key, snap); err != nil {
		return fmt.Errorf("store snapshot %s: %w", key, err)
	}
	return nil
}

// Get returns the snapshot for key only when it came from a live run and is
// younger than the staleness ceiling. Everything else is ErrCacheMiss.
func (c *FallbackCache) Get(ctx context.Context, key string) (models.FeedSnapshot, error) {
	snap, ok, err := c.store.Load(ctx, key)
	if err != nil {
		config.WarnWithFields("snapshot cache read failed", config.Fields{"key": key, "error": err.Error()})
		return models.FeedSnapshot{}, fmt.Errorf("%w: %v", ErrCacheMiss, err)
	}
	if !ok {
		return models.FeedSnapshot{}, ErrCacheMiss
	}
	if !snap.Live() {
		return models.FeedSnapshot{}, fmt.Errorf("%w: snapshot origin is %s", ErrCacheMiss, snap.Origin)
	}
	if age := snap.Age(c.now()); age >= c.ceiling {
		return models.FeedSnapshot{}, fmt.Errorf("%w: snapshot is %s old", ErrCacheMiss, age.Round(time.Second))
	}
	return snap, nil
}

// Key derives the cache key of a normalized request. Personalized requests
// are keyed per user and location.
func Key(req models.FeedRequest) string {
	parts := []string{string(req.Mode), req.Language, strings.Join(req.Topics, ",")}
	if req.Personalized() {
		parts = append(parts, req.UserID, req.Location.Country, req.Location.City, req.Location.Region)
	}
	return strings.Join(parts, "|")
}
