package events

import (
	"time"

	"github.com/google/uuid"

	"news-pulse/models"
)

type EventType string

const (
	FeedRefreshRequested  EventType = "feed.refresh_requested"
	FeedSnapshotRefreshed EventType = "feed.snapshot_refreshed"
)

const schemaVersion = "1.0"

// BaseEvent is embedded in every event payload. Consumers of the shared feed
// topic branch on Type.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

func NewBaseEvent(t EventType, source string, now time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: now.UTC(),
		Source:    source,
		Version:   schemaVersion,
	}
}

// FeedRefreshRequestedEvent asks the aggregate worker to rebuild the snapshot
// behind CacheKey, e.g. after a request was served an empty degraded feed.
type FeedRefreshRequestedEvent struct {
	BaseEvent
	CacheKey string          `json:"cache_key"`
	Mode     string          `json:"mode"`
	Language string          `json:"language"`
	Topics   []string        `json:"topics,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
	Location models.Location `json:"location"`
	Reason   string          `json:"reason"`
}

// Request rebuilds the feed request the refresh was asked for.
func (e FeedRefreshRequestedEvent) Request() models.FeedRequest {
	return models.FeedRequest{
		Mode:     models.FeedMode(e.Mode),
		Language: e.Language,
		Topics:   e.Topics,
		UserID:   e.UserID,
		Location: e.Location,
	}
}

// FeedSnapshotRefreshedEvent announces a newly stored live snapshot.
type FeedSnapshotRefreshedEvent struct {
	BaseEvent
	CacheKey     string `json:"cache_key"`
	SnapshotID   string `json:"snapshot_id"`
	ClusterCount int    `json:"cluster_count"`
	ArticleCount int    `json:"article_count"`
	Origin       string `json:"origin"`
}
