package main

import (
	"context"
	"fmt"
	"time"

	"news-pulse/config"
	"news-pulse/eventbus"
	"news-pulse/events"
	"news-pulse/models"
)

type FeedRefresher interface {
	Refresh(ctx context.Context, req models.FeedRequest) (models.FeedSnapshot, error)
}

// ExpiredClusterCleaner drops materialized clusters past retention.
type ExpiredClusterCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AggregateService keeps the general feed materialized and serves refresh
// requests published by the API.
type AggregateService struct {
	feeds    FeedRefresher
	cleaner  ExpiredClusterCleaner
	language string
	pageSize int
	now      func() time.Time
}

func NewAggregateService(feeds FeedRefresher, cleaner ExpiredClusterCleaner, cfg config.AppConfig) *AggregateService {
	return &AggregateService{
		feeds:    feeds,
		cleaner:  cleaner,
		language: "en",
		pageSize: cfg.Aggregation.MaxPageSize,
		now:      time.Now,
	}
}

// RunOnce materializes the general feed and removes expired clusters.
func (s *AggregateService) RunOnce(ctx context.Context) error {
	start := s.now()
	snap, err := s.feeds.Refresh(ctx, models.FeedRequest{
		Mode:     models.ModeGeneral,
		Language: s.language,
		PageSize: s.pageSize,
	})
	if err != nil {
		return fmt.Errorf("refresh general feed: %w", err)
	}
	config.InfoWithFields("general feed materialized", config.Fields{
		"snapshot_id": snap.ID,
		"clusters":    len(snap.Clusters),
		"articles":    snap.ArticleCount(),
		"duration":    s.now().Sub(start).String(),
	})

	if s.cleaner != nil {
		n, err := s.cleaner.DeleteExpired(ctx, s.now())
		if err != nil {
			config.WarnWithFields("expired cluster cleanup failed", config.Fields{"error": err.Error()})
		} else if n > 0 {
			config.InfoWithFields("expired clusters removed", config.Fields{"count": n})
		}
	}
	return nil
}

// RunPeriodic runs immediately and then every interval until ctx ends.
// A failed run is logged and does not stop the loop.
func (s *AggregateService) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if err := s.RunOnce(ctx); err != nil {
		config.ErrorWithFields("aggregate run failed", config.Fields{"error": err.Error()})
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				config.ErrorWithFields("aggregate run failed", config.Fields{"error": err.Error()})
			}
		}
	}
}

// Subscribe consumes the feed topic until ctx ends. Every payload is decoded
// as a refresh request; other event types only share its base fields and are
// acknowledged. A returned error sends the event to the retry topics.
func (s *AggregateService) Subscribe(ctx context.Context, bus eventbus.EventBus, groupID string) error {
	return eventbus.SubscribeJSON(ctx, bus, groupID, eventbus.TopicFeedEvents, s.handleFeedEvent)
}

func (s *AggregateService) handleFeedEvent(ctx context.Context, e events.FeedRefreshRequestedEvent, meta eventbus.Event) error {
	if e.Type != events.FeedRefreshRequested {
		config.DebugWithFields("feed event ignored", config.Fields{"event_id": meta.ID, "type": e.Type})
		return nil
	}
	return s.HandleRefreshRequested(ctx, &e)
}

func (s *AggregateService) HandleRefreshRequested(ctx context.Context, e *events.FeedRefreshRequestedEvent) error {
	req := e.Request()
	req.PageSize = s.pageSize
	snap, err := s.feeds.Refresh(ctx, req)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", e.CacheKey, err)
	}
	config.InfoWithFields("feed refreshed on request", config.Fields{
		"key":      e.CacheKey,
		"reason":   e.Reason,
		"clusters": len(snap.Clusters),
	})
	return nil
}
