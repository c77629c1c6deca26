package models

import "time"

// RawItem is one article as emitted by a single source, before normalization.
// Optional fields are pointers or empty strings; Link is required.
type RawItem struct {
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Link        string    `bson:"link" json:"link"`
	SourceName  string    `bson:"source_name" json:"source_name"`
	ImageURL    string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	PublishedAt time.Time `bson:"published_at" json:"published_at"`
	Author      string    `bson:"author" json:"author"`
}

// NormalizedArticle is a RawItem with a stable id, a resolved image and a category.
type NormalizedArticle struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Link        string    `bson:"link" json:"link"`
	SourceName  string    `bson:"source_name" json:"source_name"`
	ImageURL    string    `bson:"image_url" json:"image_url"`
	PublishedAt time.Time `bson:"published_at" json:"published_at"`
	Author      string    `bson:"author" json:"author"`
	Category    string    `bson:"category" json:"category"`
}

// Text is the title and description joined for keyword matching.
func (a NormalizedArticle) Text() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + " " + a.Description
}
