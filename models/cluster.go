package models

import "time"

// StoryCluster groups articles reporting the same story. Representative
// fields are copied from the earliest-published member.
type StoryCluster struct {
	ID                  string              `bson:"_id" json:"id"`
	Title               string              `bson:"title" json:"title"`
	Description         string              `bson:"description,omitempty" json:"description,omitempty"`
	Category            string              `bson:"category" json:"category"`
	ImageURL            string              `bson:"image_url" json:"image_url"`
	Link                string              `bson:"link" json:"link"`
	SourceName          string              `bson:"source_name" json:"source_name"`
	Articles            []NormalizedArticle `bson:"articles" json:"articles"`
	ArticleCount        int                 `bson:"article_count" json:"article_count"`
	SourceCount         int                 `bson:"source_count" json:"source_count"`
	Sources             []string            `bson:"sources" json:"sources"`
	EarliestPublishedAt time.Time           `bson:"earliest_published_at" json:"earliest_published_at"`
	LatestPublishedAt   time.Time           `bson:"latest_published_at" json:"latest_published_at"`
	BaseScore           float64             `bson:"base_score" json:"base_score"`
	PersonalizedScore   *float64            `bson:"personalized_score,omitempty" json:"personalized_score,omitempty"`
}

// Score is the value the cluster is ranked by.
func (c StoryCluster) Score() float64 {
	if c.PersonalizedScore != nil {
		return *c.PersonalizedScore
	}
	return c.BaseScore
}

// Text is the representative title and description joined for keyword matching.
func (c StoryCluster) Text() string {
	if c.Description == "" {
		return c.Title
	}
	return c.Title + " " + c.Description
}
