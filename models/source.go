package models

type SourceFormat string

const (
	FormatRSS  SourceFormat = "rss"
	FormatJSON SourceFormat = "json"
)

// Source describes one external feed.
type Source struct {
	Name      string       `json:"name"`
	Endpoint  string       `json:"endpoint"`
	Format    SourceFormat `json:"format"`
	Language  string       `json:"language,omitempty"`
	APIKeyEnv string       `json:"-"`
}
