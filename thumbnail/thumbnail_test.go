package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func imageOf(name string) string {
	for _, c := range Categories {
		if c.Name == name {
			return c.ImageURL
		}
	}
	return ""
}

func TestResolve_GoldenInputs(t *testing.T) {
	tests := []struct {
		headline    string
		description string
		want        string
	}{
		{"Stock market crash wipes out a trillion", "", imageOf("business")},
		{"Startup raises funding for AI chips", "", imageOf("technology")},
		{"Election results announced", "", imageOf("politics")},
		{"Hospital beds run short", "", imageOf("health")},
		{"Wildfire smoke blankets region", "", imageOf("environment")},
		{"Mumbai monsoon floods streets", "", imageOf("city")},
		{"Local team wins the cup", "", DefaultImage},
		{"Quiet day", "The government responded late", imageOf("politics")},
	}
	for _, tt := range tests {
		t.Run(tt.headline, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.headline, tt.description))
		})
	}
}

func TestResolve_StableAcrossCalls(t *testing.T) {
	first := Resolve("Stock market crash", "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve("Stock market crash", ""))
	}
	assert.Equal(t, imageOf("business"), first)
}

func TestResolve_PriorityOrder(t *testing.T) {
	// business is tested before health
	assert.Equal(t, imageOf("business"), Resolve("Hospital stocks fall as market slides", ""))
}

func TestResolve_ShortKeywordNeedsWordBoundary(t *testing.T) {
	assert.Equal(t, DefaultImage, Resolve("The coach said the team played well", ""))
}
