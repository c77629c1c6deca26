// Package thumbnail picks a placeholder image for articles that ship without one.
package thumbnail

import "news-pulse/keywords"

const imageParams = "?w=1200&h=800&fit=crop&crop=entropy&auto=format&q=80"

// DefaultImage is used when no category keyword matches.
const DefaultImage = "https://images.unsplash.com/photo-1504711434969-e33886168f5c" + imageParams

type Category struct {
	Name     string
	ImageURL string
	Keywords []string
}

// Categories are tested in order; the first match wins.
var Categories = []Category{
	{
		Name:     "business",
		ImageURL: "https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3" + imageParams,
		Keywords: []string{"economy", "economic", "market", "stock", "business", "financial", "finance", "inflation", "trade", "bank"},
	},
	{
		Name:     "technology",
		ImageURL: "https://images.unsplash.com/photo-1518770660439-4636190af475" + imageParams,
		Keywords: []string{"technology", "tech", "ai", "digital", "startup", "software", "cyber", "smartphone", "robot"},
	},
	{
		Name:     "politics",
		ImageURL: "https://images.unsplash.com/photo-1529107386315-e1a2ed48a620" + imageParams,
		Keywords: []string{"election", "government", "congress", "parliament", "senate", "minister", "president", "policy", "modi", "bjp"},
	},
	{
		Name:     "health",
		ImageURL: "https://images.unsplash.com/photo-1576091160399-112ba8d25d1f" + imageParams,
		Keywords: []string{"health", "medical", "hospital", "vaccine", "disease", "doctor", "covid"},
	},
	{
		Name:     "environment",
		ImageURL: "https://images.unsplash.com/photo-1569163139394-de44cb33c2a0" + imageParams,
		Keywords: []string{"climate", "environment", "pollution", "green", "wildfire", "emission"},
	},
	{
		Name:     "city",
		ImageURL: "https://images.unsplash.com/photo-1570168007204-dfb528c6958f" + imageParams,
		Keywords: []string{"city", "urban", "mumbai", "delhi", "bangalore", "chennai", "metro"},
	},
}

// Resolve returns the placeholder image for a headline and optional description.
func Resolve(headline, description string) string {
	return ResolveCategory(headline, description).ImageURL
}

// ResolveCategory returns the first category whose keywords appear in the text,
// or a "breaking" category holding DefaultImage.
func ResolveCategory(headline, description string) Category {
	m := keywords.NewMatcher(headline + " " + description)
	for _, c := range Categories {
		if _, ok := m.Any(c.Keywords); ok {
			return c
		}
	}
	return Category{Name: "breaking", ImageURL: DefaultImage}
}
