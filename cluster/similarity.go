package cluster

import (
	"strings"

	"news-pulse/keywords"
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true, "that": true,
	"this": true, "are": true, "was": true, "were": true, "has": true, "have": true,
	"had": true, "its": true, "into": true, "over": true, "after": true, "amid": true,
	"new": true, "says": true, "said": true, "will": true, "about": true, "than": true,
	"but": true, "not": true, "you": true, "your": true, "our": true, "his": true,
	"her": true, "their": true, "they": true, "who": true, "what": true, "why": true,
	"how": true, "when": true, "been": true, "more": true, "out": true, "off": true,
	"per": true, "via": true, "can": true, "all": true,
}

// TitleTokens returns the normalized token set used for similarity: lowercase
// words longer than two characters, stop words removed, light suffix stemming.
func TitleTokens(title string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, t := range keywords.Tokens(title) {
		if len(t) <= 2 || stopWords[t] {
			continue
		}
		set[stem(t)] = struct{}{}
	}
	return set
}

// stem folds common English inflections so "approves" and "approved" meet.
func stem(t string) string {
	if len(t) <= 4 {
		return t
	}
	switch {
	case strings.HasSuffix(t, "ies"):
		t = t[:len(t)-3] + "y"
	case strings.HasSuffix(t, "ing") && len(t) >= 6:
		t = t[:len(t)-3]
	case strings.HasSuffix(t, "ed") && len(t) >= 5:
		t = t[:len(t)-2]
	case strings.HasSuffix(t, "es") && sibilant(t[:len(t)-2]):
		t = t[:len(t)-2]
	case strings.HasSuffix(t, "s") && !strings.HasSuffix(t, "ss"):
		t = t[:len(t)-1]
	}
	if len(t) >= 4 && strings.HasSuffix(t, "e") {
		t = t[:len(t)-1]
	}
	return t
}

func sibilant(s string) bool {
	return strings.HasSuffix(s, "s") || strings.HasSuffix(s, "x") || strings.HasSuffix(s, "z") ||
		strings.HasSuffix(s, "ch") || strings.HasSuffix(s, "sh")
}

// Jaccard is |a∩b| / |a∪b|, zero when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
