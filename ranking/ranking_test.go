package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-pulse/models"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cluster(link, title, category string, sources int, age time.Duration) models.StoryCluster {
	c := models.StoryCluster{
		ID:                "c-" + link,
		Title:             title,
		Category:          category,
		Link:              link,
		ArticleCount:      sources,
		SourceCount:       sources,
		LatestPublishedAt: now.Add(-age),
	}
	for i := 0; i < sources; i++ {
		c.Articles = append(c.Articles, models.NormalizedArticle{ID: link})
	}
	return c
}

func TestBaseScore_DecreasesWithAge(t *testing.T) {
	r := New(DefaultWeights())
	prev := r.BaseScore(cluster("a", "t", "general", 1, 0), now)
	for _, age := range []time.Duration{time.Hour, 6 * time.Hour, 12 * time.Hour, 48 * time.Hour} {
		s := r.BaseScore(cluster("a", "t", "general", 1, age), now)
		assert.Less(t, s, prev, age.String())
		prev = s
	}
}

func TestBaseScore_Values(t *testing.T) {
	r := New(DefaultWeights())
	// fresh, single source: 0.6*1 + 0.4*0.2
	assert.Equal(t, 68.0, r.BaseScore(cluster("a", "t", "general", 1, 0), now))
	// one half-life old, five sources: 0.6*0.5 + 0.4*1
	assert.Equal(t, 70.0, r.BaseScore(cluster("a", "t", "general", 5, 12*time.Hour), now))
	// future timestamps count as fresh
	assert.Equal(t, 68.0, r.BaseScore(cluster("a", "t", "general", 1, -time.Hour), now))
}

func TestBaseScore_DiversityRaisesScore(t *testing.T) {
	r := New(DefaultWeights())
	one := r.BaseScore(cluster("a", "t", "general", 1, time.Hour), now)
	three := r.BaseScore(cluster("a", "t", "general", 3, time.Hour), now)
	capped := r.BaseScore(cluster("a", "t", "general", 9, time.Hour), now)
	assert.Greater(t, three, one)
	assert.Equal(t, r.BaseScore(cluster("a", "t", "general", 5, time.Hour), now), capped)
}

func TestRank_DeterministicOrderAndTieBreaks(t *testing.T) {
	r := New(DefaultWeights())
	input := []models.StoryCluster{
		cluster("https://b.example", "Same age", "general", 1, time.Hour),
		cluster("https://a.example", "Same age", "general", 1, time.Hour),
		cluster("https://c.example", "Older", "general", 1, 10*time.Hour),
		cluster("https://d.example", "Corroborated", "general", 4, time.Hour),
	}

	first := r.Rank(input, now, nil, 20)
	second := r.Rank(input, now, nil, 20)
	assert.Equal(t, first, second)

	links := make([]string, 0, len(first))
	for _, c := range first {
		links = append(links, c.Link)
		assert.Nil(t, c.PersonalizedScore)
	}
	assert.Equal(t, []string{"https://d.example", "https://a.example", "https://b.example", "https://c.example"}, links)
	assert.Zero(t, input[0].BaseScore, "input is not mutated")
}

func TestRank_TieBreaksOnLatestPublished(t *testing.T) {
	a := cluster("https://a.example", "x", "general", 1, time.Hour)
	b := cluster("https://b.example", "x", "general", 1, 2*time.Hour)
	a.BaseScore, b.BaseScore = 50, 50
	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
}

func TestRank_Truncates(t *testing.T) {
	r := New(DefaultWeights())
	var input []models.StoryCluster
	for i := 0; i < 30; i++ {
		input = append(input, cluster(string(rune('a'+i))+".example", "t", "general", 1, time.Duration(i)*time.Minute))
	}
	assert.Len(t, r.Rank(input, now, nil, 20), 20)
	assert.Len(t, r.Rank(input, now, nil, 0), 30)
}

func TestRank_SkipsEmptyClusters(t *testing.T) {
	r := New(DefaultWeights())
	empty := models.StoryCluster{Link: "https://empty.example"}
	out := r.Rank([]models.StoryCluster{empty, cluster("https://a.example", "t", "general", 1, 0)}, now, nil, 20)
	require.Len(t, out, 1)
	assert.Equal(t, "https://a.example", out[0].Link)
}

func TestRank_Personalized(t *testing.T) {
	r := New(DefaultWeights())
	local := cluster("https://local.example", "Mumbai metro line opens to commuters", "general", 1, time.Hour)
	popular := cluster("https://popular.example", "Global summit opens in Geneva", "politics", 2, time.Hour)

	general := r.Rank([]models.StoryCluster{local, popular}, now, nil, 20)
	assert.Equal(t, "https://popular.example", general[0].Link)

	profile := &Profile{Location: models.Location{Country: "india", City: "mumbai"}, Interests: []string{"metro"}}
	personal := r.Rank([]models.StoryCluster{local, popular}, now, profile, 20)
	require.NotNil(t, personal[0].PersonalizedScore)
	assert.Equal(t, "https://local.example", personal[0].Link)
}

func TestAffinity_Clamped(t *testing.T) {
	r := New(DefaultWeights())
	c := cluster("https://a.example", "Vaccine trial results in Delhi, India", "health", 1, 0)
	p := &Profile{
		Location:     models.Location{Country: "india", City: "delhi", Region: "north"},
		Categories:   []string{"health"},
		Interests:    []string{"vaccine", "trial", "health"},
		TopicWeights: map[string]float64{"vaccine": 1},
	}
	assert.Equal(t, 1.0, r.Affinity(c, p))

	dislike := &Profile{TopicWeights: map[string]float64{"vaccine": 0}}
	assert.InDelta(t, 0.4, r.Affinity(c, dislike), 1e-9)
}

func TestAffinity_CountryCodes(t *testing.T) {
	r := New(DefaultWeights())
	pronoun := cluster("https://a.example", "Tell us what you think about the new budget", "general", 1, 0)
	american := cluster("https://b.example", "U.S. Senate passes budget bill", "politics", 1, 0)
	us := &Profile{Location: models.Location{Country: "us"}}

	assert.Equal(t, 0.5, r.Affinity(pronoun, us))
	assert.InDelta(t, 0.7, r.Affinity(american, us), 1e-9)

	italian := &Profile{Location: models.Location{Country: "it"}}
	italy := cluster("https://c.example", "It rained in Rome all week", "general", 1, 0)
	assert.InDelta(t, 0.7, r.Affinity(italy, italian), 1e-9)
	assert.Equal(t, 0.5, r.Affinity(pronoun, &Profile{Location: models.Location{Country: "zz"}}))
}

func TestNewProfile(t *testing.T) {
	general := models.FeedRequest{Mode: models.ModeGeneral, Topics: []string{"tech"}}
	assert.Nil(t, NewProfile(general, nil))

	anonymous := models.FeedRequest{Mode: models.ModePersonalized}
	assert.Nil(t, NewProfile(anonymous, nil))

	prefs := &models.Preferences{Categories: []string{"health"}, Location: models.Location{Country: "india"}}
	p := NewProfile(models.FeedRequest{Mode: models.ModePersonalized, UserID: "u1"}, prefs)
	require.NotNil(t, p)
	assert.Equal(t, "india", p.Location.Country)

	p = NewProfile(models.FeedRequest{Mode: models.ModePersonalized, Location: models.Location{City: "pune"}}, prefs)
	require.NotNil(t, p)
	assert.Equal(t, "pune", p.Location.City)
	assert.Empty(t, p.Location.Country, "request location replaces stored location")
}
