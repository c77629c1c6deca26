package dto

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"news-pulse/models"
)

type LocationDTO struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
}

// TopicList decodes either a comma-separated string ("technology,business")
// or an array of strings.
type TopicList []string

func (t *TopicList) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err == nil {
		*t = models.ParseTopics(raw)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.New("topics must be a comma-separated string or an array of strings")
	}
	*t = models.ParseTopics(strings.Join(list, ","))
	return nil
}

// FeedRequestDTO is the POST /feed body.
type FeedRequestDTO struct {
	Mode     string      `json:"mode" example:"personalized"`
	Language string      `json:"language" example:"en"`
	Topics   TopicList   `json:"topics" example:"technology,business"`
	UserID   string      `json:"userId"`
	Location LocationDTO `json:"location"`
	PageSize int         `json:"pageSize" example:"20"`
}

func (d FeedRequestDTO) ToModel() models.FeedRequest {
	return models.FeedRequest{
		Mode:     models.FeedMode(strings.ToLower(strings.TrimSpace(d.Mode))),
		Language: d.Language,
		Topics:   []string(d.Topics),
		UserID:   d.UserID,
		Location: models.Location{
			Country: d.Location.Country,
			City:    d.Location.City,
			Region:  d.Location.Region,
		},
		PageSize: d.PageSize,
	}
}

type FeedEntryDTO struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	Link              string    `json:"link"`
	SourceName        string    `json:"source_name"`
	ImageURL          string    `json:"image_url"`
	Category          string    `json:"category"`
	PublishedAt       time.Time `json:"published_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Score             float64   `json:"score"`
	PersonalizedScore *float64  `json:"personalized_score,omitempty"`
	ArticleCount      int       `json:"article_count"`
	Sources           []string  `json:"sources"`
}

type FeedResponseDTO struct {
	Items       []FeedEntryDTO `json:"items"`
	Origin      string         `json:"origin" example:"live"`
	GeneratedAt time.Time      `json:"generated_at"`
	Total       int            `json:"total"`
	Hint        string         `json:"hint,omitempty"`
}

// NewFeedResponse maps a snapshot to the response body; hint is passed through.
func NewFeedResponse(snap models.FeedSnapshot, hint string) FeedResponseDTO {
	items := make([]FeedEntryDTO, 0, len(snap.Clusters))
	for _, c := range snap.Clusters {
		items = append(items, FeedEntryDTO{
			ID:                c.ID,
			Title:             c.Title,
			Summary:           c.Description,
			Link:              c.Link,
			SourceName:        c.SourceName,
			ImageURL:          c.ImageURL,
			Category:          c.Category,
			PublishedAt:       c.EarliestPublishedAt,
			UpdatedAt:         c.LatestPublishedAt,
			Score:             c.BaseScore,
			PersonalizedScore: c.PersonalizedScore,
			ArticleCount:      c.ArticleCount,
			Sources:           c.Sources,
		})
	}
	return FeedResponseDTO{
		Items:       items,
		Origin:      string(snap.Origin),
		GeneratedAt: snap.CreatedAt,
		Total:       len(items),
		Hint:        hint,
	}
}

type SourceDTO struct {
	Name     string `json:"name"`
	Format   string `json:"format"`
	Language string `json:"language,omitempty"`
}

func NewSourceList(sources []models.Source) []SourceDTO {
	out := make([]SourceDTO, 0, len(sources))
	for _, s := range sources {
		out = append(out, SourceDTO{Name: s.Name, Format: string(s.Format), Language: s.Language})
	}
	return out
}

// PreferencesDTO is the body of PUT /users/:user_id/preferences.
type PreferencesDTO struct {
	Categories   []string           `json:"categories"`
	TopicWeights map[string]float64 `json:"topic_weights"`
	Location     LocationDTO        `json:"location"`
}

func (d PreferencesDTO) ToModel(userID string) *models.Preferences {
	cats := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cats = append(cats, c)
		}
	}
	weights := make(map[string]float64, len(d.TopicWeights))
	for k, v := range d.TopicWeights {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			weights[k] = v
		}
	}
	return &models.Preferences{
		UserID:       userID,
		Categories:   cats,
		TopicWeights: weights,
		Location: models.Location{
			Country: strings.ToLower(strings.TrimSpace(d.Location.Country)),
			City:    strings.ToLower(strings.TrimSpace(d.Location.City)),
			Region:  strings.ToLower(strings.TrimSpace(d.Location.Region)),
		},
	}
}
