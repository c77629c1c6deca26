package ranking

import (
	"strings"

	"news-pulse/keywords"
)

// countryNames maps ISO 3166 alpha-2 codes to the names headlines use.
var countryNames = map[string][]string{
	"au": {"australia", "australian"},
	"br": {"brazil", "brazilian"},
	"ca": {"canada", "canadian"},
	"cn": {"china", "chinese", "beijing"},
	"de": {"germany", "german", "berlin"},
	"es": {"spain", "spanish", "madrid"},
	"fr": {"france", "french", "paris"},
	"gb": {"britain", "british", "united kingdom", "u.k.", "london"},
	"in": {"india", "indian", "new delhi"},
	"it": {"italy", "italian", "rome"},
	"jp": {"japan", "japanese", "tokyo"},
	"mx": {"mexico", "mexican"},
	"ng": {"nigeria", "nigerian"},
	"pk": {"pakistan", "pakistani"},
	"ru": {"russia", "russian", "moscow"},
	"ua": {"ukraine", "ukrainian", "kyiv"},
	"uk": {"britain", "british", "united kingdom", "u.k.", "london"},
	"us": {"united states", "u.s.", "america", "american", "washington"},
	"za": {"south africa", "south african"},
}

// countryTerms returns the keywords that identify country in text. Bare
// two-letter codes collide with ordinary words ("us", "in", "it"), so a code
// without a known name matches nothing.
func countryTerms(country string) []string {
	country = strings.ToLower(strings.TrimSpace(country))
	if names, ok := countryNames[country]; ok {
		return names
	}
	if len(country) <= 2 {
		return nil
	}
	return []string{country}
}

func matchesCountry(m keywords.Matcher, country string) bool {
	_, ok := m.Any(countryTerms(country))
	return ok
}
