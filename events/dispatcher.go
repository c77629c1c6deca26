package events

import (
	"context"
	"fmt"
	"time"

	"news-pulse/eventbus"
	"news-pulse/models"
)

// Dispatcher publishes feed events on the feed topic.
type Dispatcher struct {
	bus    eventbus.EventBus
	source string
	now    func() time.Time
}

// NewDispatcher tags every event with source, e.g. "api" or "aggregate".
func NewDispatcher(bus eventbus.EventBus, source string) *Dispatcher {
	return &Dispatcher{bus: bus, source: source, now: time.Now}
}

func (d *Dispatcher) PublishRefreshRequested(ctx context.Context, key string, req models.FeedRequest, reason string) error {
	e := FeedRefreshRequestedEvent{
		BaseEvent: NewBaseEvent(FeedRefreshRequested, d.source, d.now()),
		CacheKey:  key,
		Mode:      string(req.Mode),
		Language:  req.Language,
		Topics:    req.Topics,
		UserID:    req.UserID,
		Location:  req.Location,
		Reason:    reason,
	}
	return d.publish(ctx, e.ID, e)
}

func (d *Dispatcher) PublishSnapshotRefreshed(ctx context.Context, snap models.FeedSnapshot) error {
	e := FeedSnapshotRefreshedEvent{
		BaseEvent:    NewBaseEvent(FeedSnapshotRefreshed, d.source, d.now()),
		CacheKey:     snap.Key,
		SnapshotID:   snap.ID,
		ClusterCount: len(snap.Clusters),
		ArticleCount: snap.ArticleCount(),
		Origin:       string(snap.Origin),
	}
	return d.publish(ctx, e.ID, e)
}

func (d *Dispatcher) publish(ctx context.Context, id string, payload any) error {
	evt, err := eventbus.NewJSONEvent(id, payload, 0)
	if err != nil {
		return fmt.Errorf("build event: %w", err)
	}
	return d.bus.Publish(ctx, eventbus.TopicFeedEvents.Base(), evt)
}
