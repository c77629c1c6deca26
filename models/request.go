package models

import (
	"sort"
	"strings"
)

type FeedMode string

const (
	ModeGeneral      FeedMode = "general"
	ModePersonalized FeedMode = "personalized"
)

type Location struct {
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Region  string `bson:"region,omitempty" json:"region,omitempty"`
}

func (l Location) IsZero() bool {
	return l.Country == "" && l.City == "" && l.Region == ""
}

// FeedRequest is the inbound feed query.
type FeedRequest struct {
	Mode     FeedMode `json:"mode"`
	Language string   `json:"language"`
	Topics   []string `json:"topics,omitempty"`
	UserID   string   `json:"user_id,omitempty"`
	Location Location `json:"location"`
	PageSize int      `json:"page_size,omitempty"`
}

// Personalized reports whether the request asks for a per-user ranking.
func (r FeedRequest) Personalized() bool {
	return r.Mode == ModePersonalized
}

// Normalize lowercases and deduplicates topics, fills mode and language
// defaults and clamps the page size.
func (r FeedRequest) Normalize(defaultPageSize, maxPageSize int) FeedRequest {
	if r.Mode != ModePersonalized {
		r.Mode = ModeGeneral
	}
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	if r.Language == "" {
		r.Language = "en"
	}
	r.Topics = ParseTopics(strings.Join(r.Topics, ","))
	r.UserID = strings.TrimSpace(r.UserID)
	r.Location = Location{
		Country: strings.ToLower(strings.TrimSpace(r.Location.Country)),
		City:    strings.ToLower(strings.TrimSpace(r.Location.City)),
		Region:  strings.ToLower(strings.TrimSpace(r.Location.Region)),
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultPageSize
	}
	if maxPageSize > 0 && r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
	return r
}

// ParseTopics splits a comma-separated topic list into sorted, unique, lowercase topics.
func ParseTopics(raw string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
