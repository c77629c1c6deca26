package models

import "time"

// Origin records how a snapshot was produced.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginStore    Origin = "store"
	OriginFallback Origin = "fallback"
)

// FeedSnapshot is one ranked, time-stamped feed result.
type FeedSnapshot struct {
	ID        string         `bson:"snapshot_id" json:"id"`
	Key       string         `bson:"_id" json:"key"`
	Clusters  []StoryCluster `bson:"clusters" json:"clusters"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	Origin    Origin         `bson:"origin" json:"origin"`
}

// Live reports whether the snapshot came straight from a live aggregation run.
func (s FeedSnapshot) Live() bool {
	return s.Origin == OriginLive
}

// Age is how old the snapshot is at now.
func (s FeedSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// ArticleCount sums member counts over all clusters.
func (s FeedSnapshot) ArticleCount() int {
	n := 0
	for _, c := range s.Clusters {
		n += c.ArticleCount
	}
	return n
}
