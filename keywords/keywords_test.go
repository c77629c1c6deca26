package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"New AI chip unveiled", "ai", true},
		{"The minister said on Monday", "ai", false},
		{"Markets rally after rate cut", "market", true},
		{"Stock market crash wipes out gains", "stock market", true},
		{"Livestock market reopens", "stock market", false},
		{"Greenland ice sheet", "green", true},
		{"", "health", false},
		{"health ministry", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.keyword, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMatcher(tt.text).Match(tt.keyword))
		})
	}
}

func TestMatcher_AnyReturnsFirstInListOrder(t *testing.T) {
	m := NewMatcher("Hospital budget hit by market slump")
	kw, ok := m.Any([]string{"market", "hospital"})
	assert.True(t, ok)
	assert.Equal(t, "market", kw)
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("Vaccine rollout expands", []string{"vaccine"}))
	assert.False(t, ContainsAny("Nothing to see", []string{"vaccine", "ai"}))
}
