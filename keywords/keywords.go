// Package keywords matches keyword lists against free text.
package keywords

import (
	"strings"
	"unicode"
)

// Tokens lowercases text and splits it on anything that is not a letter or digit.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Matcher holds the tokenized form of a text so several keyword lists can
// be tested against it.
type Matcher struct {
	tokens []string
	joined string
}

func NewMatcher(text string) Matcher {
	tokens := Tokens(text)
	return Matcher{tokens: tokens, joined: " " + strings.Join(tokens, " ") + " "}
}

// Match reports whether keyword occurs in the text. Keywords of three
// characters or fewer must equal a whole token; longer keywords match as a
// token prefix ("market" matches "markets"). Multi-word keywords match as a
// phrase starting on a token boundary.
func (m Matcher) Match(keyword string) bool {
	kw := strings.Join(Tokens(keyword), " ")
	if kw == "" {
		return false
	}
	if strings.Contains(kw, " ") {
		return strings.Contains(m.joined, " "+kw)
	}
	for _, t := range m.tokens {
		if len(kw) <= 3 {
			if t == kw {
				return true
			}
			continue
		}
		if strings.HasPrefix(t, kw) {
			return true
		}
	}
	return false
}

// Any returns the first keyword of list found in the text.
func (m Matcher) Any(list []string) (string, bool) {
	for _, kw := range list {
		if m.Match(kw) {
			return kw, true
		}
	}
	return "", false
}

// ContainsAny reports whether text contains any keyword of list.
func ContainsAny(text string, list []string) bool {
	_, ok := NewMatcher(text).Any(list)
	return ok
}
