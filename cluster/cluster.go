// Package cluster groups near-duplicate articles into story clusters.
package cluster

import (
	"sort"
	"time"

	"news-pulse/models"
)

const (
	DefaultThreshold = 0.6
	DefaultWindow    = 48 * time.Hour
)

type Options struct {
	// Threshold is the minimum title token overlap (Jaccard) to merge.
	Threshold float64
	// Window is the maximum publish time distance to merge.
	Window time.Duration
	// Bypass emits every article as its own cluster.
	Bypass bool
}

type Clusterer struct {
	opts Options
}

func New(opts Options) *Clusterer {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	return &Clusterer{opts: opts}
}

// Cluster partitions articles into story clusters. Two articles are linked
// when their titles overlap at least Threshold and they were published
// within Window of each other; clusters are the connected components of
// that relation, so the result does not depend on input order.
func (c *Clusterer) Cluster(articles []models.NormalizedArticle) []models.StoryCluster {
	if len(articles) == 0 {
		return nil
	}
	sorted := make([]models.NormalizedArticle, len(articles))
	copy(sorted, articles)
	sort.Slice(sorted, func(i, j int) bool { return canonicalLess(sorted[i], sorted[j]) })

	uf := newUnionFind(len(sorted))
	if !c.opts.Bypass {
		tokens := make([]map[string]struct{}, len(sorted))
		for i, a := range sorted {
			tokens[i] = TitleTokens(a.Title)
		}
		for i := range sorted {
			for j := i + 1; j < len(sorted); j++ {
				// sorted by time, so later j are only further away
				if sorted[j].PublishedAt.Sub(sorted[i].PublishedAt) > c.opts.Window {
					break
				}
				if Jaccard(tokens[i], tokens[j]) >= c.opts.Threshold {
					uf.union(i, j)
				}
			}
		}
	}

	groups := map[int][]models.NormalizedArticle{}
	var roots []int
	for i, a := range sorted {
		r := uf.find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], a)
	}

	out := make([]models.StoryCluster, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(groups[r]))
	}
	return out
}

// canonicalLess orders by publish time, then link, then id.
func canonicalLess(a, b models.NormalizedArticle) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.Before(b.PublishedAt)
	}
	if a.Link != b.Link {
		return a.Link < b.Link
	}
	return a.ID < b.ID
}

// build turns canonically ordered members into a cluster represented by the
// first (earliest, then lowest link) member.
func build(members []models.NormalizedArticle) models.StoryCluster {
	rep := members[0]
	seen := map[string]bool{}
	var sources []string
	latest := rep.PublishedAt
	for _, m := range members {
		if !seen[m.SourceName] {
			seen[m.SourceName] = true
			sources = append(sources, m.SourceName)
		}
		if m.PublishedAt.After(latest) {
			latest = m.PublishedAt
		}
	}
	sort.Strings(sources)

	return models.StoryCluster{
		ID:                  "c-" + rep.ID,
		Title:               rep.Title,
		Description:         rep.Description,
		Category:            rep.Category,
		ImageURL:            rep.ImageURL,
		Link:                rep.Link,
		SourceName:          rep.SourceName,
		Articles:            members,
		ArticleCount:        len(members),
		SourceCount:         len(sources),
		Sources:             sources,
		EarliestPublishedAt: rep.PublishedAt,
		LatestPublishedAt:   latest,
	}
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
