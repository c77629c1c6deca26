package models

import "time"

// Preferences are the stored personalization settings of one user.
type Preferences struct {
	UserID       string             `bson:"_id" json:"user_id"`
	Categories   []string           `bson:"categories" json:"categories"`
	TopicWeights map[string]float64 `bson:"topic_weights" json:"topic_weights"`
	Location     Location           `bson:"location" json:"location"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
