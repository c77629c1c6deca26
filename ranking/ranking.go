// Package ranking scores story clusters and orders them into a feed.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"news-pulse/config"
	"news-pulse/keywords"
	"news-pulse/models"
)

type Weights struct {
	Recency   float64
	Diversity float64
	// Personal is the share of the final score taken by user affinity.
	Personal     float64
	HalfLife     time.Duration
	DiversityCap int
}

func DefaultWeights() Weights {
	return Weights{
		Recency:      0.6,
		Diversity:    0.4,
		Personal:     0.3,
		HalfLife:     12 * time.Hour,
		DiversityCap: 5,
	}
}

func WeightsFromConfig(cfg config.ScoringConfig) Weights {
	return Weights{
		Recency:      cfg.RecencyWeight,
		Diversity:    cfg.DiversityWeight,
		Personal:     cfg.PersonalWeight,
		HalfLife:     cfg.HalfLife,
		DiversityCap: cfg.DiversityCap,
	}
}

// Profile is what personalization knows about the reader.
type Profile struct {
	Interests    []string
	Categories   []string
	TopicWeights map[string]float64
	Location     models.Location
}

func (p *Profile) empty() bool {
	return p == nil || (len(p.Interests) == 0 && len(p.Categories) == 0 &&
		len(p.TopicWeights) == 0 && p.Location.IsZero())
}

// NewProfile merges request context with stored preferences. It returns nil
// for general requests or when there is nothing to personalize on.
func NewProfile(req models.FeedRequest, prefs *models.Preferences) *Profile {
	if !req.Personalized() {
		return nil
	}
	p := &Profile{Interests: req.Topics, Location: req.Location}
	if prefs != nil {
		p.Categories = prefs.Categories
		p.TopicWeights = prefs.TopicWeights
		if p.Location.IsZero() {
			p.Location = prefs.Location
		}
	}
	if p.empty() {
		return nil
	}
	return p
}

type Ranker struct {
	w Weights
}

func New(w Weights) *Ranker {
	d := DefaultWeights()
	if w.Recency <= 0 && w.Diversity <= 0 {
		w.Recency, w.Diversity = d.Recency, d.Diversity
	}
	if w.Personal <= 0 || w.Personal > 1 {
		w.Personal = d.Personal
	}
	if w.HalfLife <= 0 {
		w.HalfLife = d.HalfLife
	}
	if w.DiversityCap <= 0 {
		w.DiversityCap = d.DiversityCap
	}
	return &Ranker{w: w}
}

// BaseScore combines exponential freshness decay with source corroboration,
// on a 0-100 scale.
func (r *Ranker) BaseScore(c models.StoryCluster, now time.Time) float64 {
	age := now.Sub(c.LatestPublishedAt)
	if age < 0 {
		age = 0
	}
	freshness := math.Exp(-math.Ln2 * age.Hours() / r.w.HalfLife.Hours())
	diversity := math.Min(1, float64(c.SourceCount)/float64(r.w.DiversityCap))
	return round2((r.w.Recency*freshness + r.w.Diversity*diversity) * 100)
}

// Affinity is how well a cluster matches the profile, in [0,1] with 0.5 neutral.
func (r *Ranker) Affinity(c models.StoryCluster, p *Profile) float64 {
	m := keywords.NewMatcher(c.Text())
	score := 0.5
	if matchesCountry(m, p.Location.Country) {
		score += 0.2
	}
	if p.Location.City != "" && m.Match(p.Location.City) {
		score += 0.15
	}
	if p.Location.Region != "" && m.Match(p.Location.Region) {
		score += 0.1
	}
	for _, cat := range p.Categories {
		if strings.EqualFold(cat, c.Category) {
			score += 0.15
			break
		}
	}
	for _, topic := range p.Interests {
		if strings.EqualFold(topic, c.Category) || m.Match(topic) {
			score += 0.1
		}
	}
	topics := make([]string, 0, len(p.TopicWeights))
	for t := range p.TopicWeights {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	for _, t := range topics {
		if m.Match(t) {
			score += (p.TopicWeights[t] - 0.5) * 0.2
		}
	}
	return math.Max(0, math.Min(1, score))
}

// PersonalizedScore blends the base score with the reader's affinity.
func (r *Ranker) PersonalizedScore(c models.StoryCluster, base float64, p *Profile) float64 {
	a := r.Affinity(c, p)
	return round2(base*(1-r.w.Personal) + a*100*r.w.Personal)
}

// Rank scores a copy of clusters and returns at most limit of them ordered by
// score, then latest publish time, then representative link.
func (r *Ranker) Rank(clusters []models.StoryCluster, now time.Time, profile *Profile, limit int) []models.StoryCluster {
	out := make([]models.StoryCluster, 0, len(clusters))
	for _, c := range clusters {
		if c.ArticleCount == 0 {
			continue
		}
		c.BaseScore = r.BaseScore(c, now)
		c.PersonalizedScore = nil
		if !profile.empty() {
			ps := r.PersonalizedScore(c, c.BaseScore, profile)
			c.PersonalizedScore = &ps
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Less is the feed order.
func Less(a, b models.StoryCluster) bool {
	if sa, sb := a.Score(), b.Score(); sa != sb {
		return sa > sb
	}
	if !a.LatestPublishedAt.Equal(b.LatestPublishedAt) {
		return a.LatestPublishedAt.After(b.LatestPublishedAt)
	}
	return a.Link < b.Link
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
