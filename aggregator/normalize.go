package aggregator

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"news-pulse/keywords"
	"news-pulse/models"
	"news-pulse/thumbnail"
)

const CategoryGeneral = "general"

var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"technology", []string{"technology", "tech", "ai", "software", "digital", "cyber", "startup", "app", "internet", "smartphone", "robot", "chip"}},
	{"business", []string{"business", "economy", "economic", "market", "stock", "finance", "financial", "bank", "trade", "inflation", "earnings"}},
	{"health", []string{"health", "medical", "hospital", "vaccine", "disease", "doctor", "covid", "virus"}},
	{"politics", []string{"election", "government", "minister", "parliament", "congress", "senate", "president", "policy", "vote", "council"}},
}

// ArticleID is the stable identifier of an article: the first 16 bytes of
// the SHA-256 of its link, hex encoded.
func ArticleID(link string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(link)))
	return hex.EncodeToString(h[:16])
}

// Categorize tags an article by the first category whose keywords appear in
// its title or description.
func Categorize(title, description string) string {
	m := keywords.NewMatcher(title + " " + description)
	for _, c := range categoryKeywords {
		if _, ok := m.Any(c.keywords); ok {
			return c.name
		}
	}
	return CategoryGeneral
}

func Normalize(item models.RawItem) models.NormalizedArticle {
	img := item.ImageURL
	if img == "" {
		img = thumbnail.Resolve(item.Title, item.Description)
	}
	author := item.Author
	if author == "" {
		author = item.SourceName
	}
	return models.NormalizedArticle{
		ID:          ArticleID(item.Link),
		Title:       item.Title,
		Description: item.Description,
		Link:        strings.TrimSpace(item.Link),
		SourceName:  item.SourceName,
		ImageURL:    img,
		PublishedAt: item.PublishedAt.UTC(),
		Author:      author,
		Category:    Categorize(item.Title, item.Description),
	}
}

// NormalizeAll normalizes items and keeps one article per id. When several
// sources carry the same link the earliest publish time wins, then the
// lowest source name.
func NormalizeAll(items []models.RawItem) []models.NormalizedArticle {
	byID := make(map[string]models.NormalizedArticle, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Link) == "" {
			continue
		}
		a := Normalize(it)
		if prev, ok := byID[a.ID]; ok && !preferred(a, prev) {
			continue
		}
		byID[a.ID] = a
	}

	out := make([]models.NormalizedArticle, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.Before(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func preferred(a, b models.NormalizedArticle) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.Before(b.PublishedAt)
	}
	if a.SourceName != b.SourceName {
		return a.SourceName < b.SourceName
	}
	return a.Title < b.Title
}

// FilterTopics keeps articles whose category equals a topic or whose text
// mentions one. An empty topic list keeps everything.
func FilterTopics(articles []models.NormalizedArticle, topics []string) []models.NormalizedArticle {
	if len(topics) == 0 {
		return articles
	}
	out := make([]models.NormalizedArticle, 0, len(articles))
	for _, a := range articles {
		m := keywords.NewMatcher(a.Text())
		for _, t := range topics {
			if strings.EqualFold(t, a.Category) || m.Match(t) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
