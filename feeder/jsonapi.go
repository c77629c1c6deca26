package feeder

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"

	"news-pulse/models"
)

// JSONAdapter reads NewsAPI-shaped JSON endpoints.
type JSONAdapter struct {
	fetcher
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPISource struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type newsAPIArticle struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	URL         *string       `json:"url"`
	URLToImage  *string       `json:"urlToImage"`
	PublishedAt *string       `json:"publishedAt"`
	Author      *string       `json:"author"`
	Source      newsAPISource `json:"source"`
}

func (a *JSONAdapter) Fetch(ctx context.Context) ([]models.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	endpoint, err := a.endpoint()
	if err != nil {
		return nil, err
	}
	body, _, err := a.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, a.unavailable("decode body: %v", err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, a.unavailable("api status %s: %s %s", resp.Status, resp.Code, resp.Message)
	}

	c := a.newCollector(a.source.Endpoint)
	for _, art := range resp.Articles {
		if c.full() {
			break
		}
		c.add(jsonCandidate(art))
	}
	return c.result(), nil
}

// endpoint appends the API key from the configured environment variable.
func (a *JSONAdapter) endpoint() (string, error) {
	if a.source.APIKeyEnv == "" {
		return a.source.Endpoint, nil
	}
	key := os.Getenv(a.source.APIKeyEnv)
	if key == "" {
		return "", a.unavailable("environment variable %s is empty", a.source.APIKeyEnv)
	}
	u, err := url.Parse(a.source.Endpoint)
	if err != nil {
		return "", a.unavailable("parse endpoint: %v", err)
	}
	q := u.Query()
	q.Set("apiKey", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func jsonCandidate(art newsAPIArticle) candidate {
	c := candidate{
		Title:       deref(art.Title),
		Description: deref(art.Description),
		Link:        deref(art.URL),
		ImageURL:    deref(art.URLToImage),
		Author:      deref(art.Author),
		SourceName:  deref(art.Source.Name),
	}
	if raw := strings.TrimSpace(deref(art.PublishedAt)); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			c.PublishedAt = t
		}
	}
	return c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
