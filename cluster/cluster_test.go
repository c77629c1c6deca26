package cluster

import (
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-pulse/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func article(id, title, source string, offset time.Duration) models.NormalizedArticle {
	return models.NormalizedArticle{
		ID:          id,
		Title:       title,
		Link:        "https://" + source + ".example/" + id,
		SourceName:  source,
		ImageURL:    "https://img.example/" + id + ".jpg",
		PublishedAt: base.Add(offset),
		Category:    "general",
	}
}

// partition renders clusters as a sorted list of sorted member id lists.
func partition(clusters []models.StoryCluster) []string {
	var out []string
	for _, c := range clusters {
		ids := make([]string, 0, len(c.Articles))
		for _, a := range c.Articles {
			ids = append(ids, a.ID)
		}
		sort.Strings(ids)
		out = append(out, strings.Join(ids, ","))
	}
	sort.Strings(out)
	return out
}

func TestCluster_SameStoryDifferentWording(t *testing.T) {
	c := New(Options{})
	clusters := c.Cluster([]models.NormalizedArticle{
		article("a1", "City council approves budget", "alpha", 0),
		article("b1", "Budget approved by city council", "beta", time.Hour),
	})

	require.Len(t, clusters, 1)
	cl := clusters[0]
	assert.Equal(t, 2, cl.ArticleCount)
	assert.Equal(t, 2, cl.SourceCount)
	assert.Equal(t, []string{"alpha", "beta"}, cl.Sources)
	assert.Equal(t, "City council approves budget", cl.Title, "earliest member represents the cluster")
	assert.Equal(t, base, cl.EarliestPublishedAt)
	assert.Equal(t, base.Add(time.Hour), cl.LatestPublishedAt)
	assert.Equal(t, "c-a1", cl.ID)
}

func TestCluster_OutsideWindowStaysApart(t *testing.T) {
	c := New(Options{Window: 48 * time.Hour})
	clusters := c.Cluster([]models.NormalizedArticle{
		article("a1", "City council approves budget", "alpha", 0),
		article("b1", "City council approves budget", "beta", 49*time.Hour),
	})
	assert.Len(t, clusters, 2)
}

func TestCluster_DissimilarTitlesStayApart(t *testing.T) {
	c := New(Options{})
	clusters := c.Cluster([]models.NormalizedArticle{
		article("a1", "City council approves budget", "alpha", 0),
		article("b1", "City council rejects stadium plan", "beta", time.Hour),
	})
	assert.Len(t, clusters, 2)
}

func TestCluster_RepresentativeTieBreaksOnLink(t *testing.T) {
	c := New(Options{})
	x := article("x", "Storm floods coastal towns overnight", "zeta", 0)
	x.Link = "https://zeta.example/story"
	y := article("y", "Storm floods coastal towns overnight", "alpha", 0)
	y.Link = "https://alpha.example/story"

	clusters := c.Cluster([]models.NormalizedArticle{x, y})
	require.Len(t, clusters, 1)
	assert.Equal(t, "https://alpha.example/story", clusters[0].Link)
	assert.Equal(t, "alpha", clusters[0].SourceName)
}

func TestCluster_OrderIndependent(t *testing.T) {
	input := []models.NormalizedArticle{
		article("a1", "City council approves budget", "alpha", 0),
		article("b1", "Budget approved by city council", "beta", time.Hour),
		article("c1", "City council approves budget after long debate", "gamma", 2*time.Hour),
		article("d1", "Heatwave grips northern states", "alpha", 30*time.Minute),
		article("e1", "Northern states gripped by heatwave", "delta", 90*time.Minute),
		article("f1", "Central bank holds interest rates steady", "beta", 3*time.Hour),
		article("g1", "Interest rates held steady by central bank", "gamma", 4*time.Hour),
		article("h1", "Local bakery wins national award", "delta", 5*time.Hour),
		article("i1", "Heatwave grips northern states", "epsilon", 60*time.Hour),
	}
	c := New(Options{})
	want := partition(c.Cluster(input))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 25; i++ {
		shuffled := make([]models.NormalizedArticle, len(input))
		copy(shuffled, input)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := c.Cluster(shuffled)
		assert.Equal(t, want, partition(got))
	}
}

func TestCluster_Invariants(t *testing.T) {
	c := New(Options{})
	input := []models.NormalizedArticle{
		article("a1", "City council approves budget", "alpha", 0),
		article("b1", "Budget approved by city council", "alpha", time.Hour),
		article("c1", "Unrelated sports result tonight", "beta", 0),
	}
	clusters := c.Cluster(input)

	total := 0
	for _, cl := range clusters {
		assert.NotZero(t, cl.ArticleCount)
		assert.Equal(t, len(cl.Articles), cl.ArticleCount)
		total += cl.ArticleCount
	}
	assert.Equal(t, len(input), total)
	assert.Nil(t, c.Cluster(nil))
}

func TestCluster_SameSourceCountsOnce(t *testing.T) {
	c := New(Options{})
	clusters := c.Cluster([]models.NormalizedArticle{
		article("a1", "City council approves budget", "alpha", 0),
		article("b1", "Budget approved by city council", "alpha", time.Hour),
	})
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].SourceCount)
}

func TestCluster_Bypass(t *testing.T) {
	c := New(Options{Bypass: true})
	clusters := c.Cluster([]models.NormalizedArticle{
		article("a1", "City council approves budget", "alpha", 0),
		article("b1", "Budget approved by city council", "beta", time.Hour),
	})
	assert.Len(t, clusters, 2)
}

func TestJaccard(t *testing.T) {
	a := TitleTokens("City council approves budget")
	b := TitleTokens("Budget approved by city council")
	assert.Equal(t, 1.0, Jaccard(a, b))
	assert.Equal(t, 0.0, Jaccard(a, TitleTokens("")))
	assert.InDelta(t, 0.5, Jaccard(TitleTokens("alpha bravo"), TitleTokens("alpha bravo charlie delta")), 1e-9)
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"approves": "approv",
		"approved": "approv",
		"taxes":    "tax",
		"cities":   "city",
		"rising":   "ris",
		"budget":   "budget",
		"city":     "city",
		"class":    "class",
	}
	for in, want := range tests {
		assert.Equal(t, want, stem(in), in)
	}
}
