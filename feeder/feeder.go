// Package feeder fetches external news sources and turns them into raw items.
package feeder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"news-pulse/config"
	"news-pulse/httpclient"
	"news-pulse/models"
)

var (
	// ErrSourceUnavailable marks a source that could not be fetched or parsed.
	// It is never fatal to an aggregation run.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrItemMalformed marks a single item that was skipped.
	ErrItemMalformed = errors.New("item malformed")
)

const (
	DefaultLimit   = 5
	DefaultTimeout = 8 * time.Second

	maxBodyBytes       = 10 << 20
	minTitleRunes      = 6
	maxDescRunes       = 300
	removedPlaceholder = "[removed]"
)

// Adapter fetches one source and returns at most its limit of items.
type Adapter interface {
	Source() models.Source
	Fetch(ctx context.Context) ([]models.RawItem, error)
}

type Options struct {
	Limit   int
	Timeout time.Duration
	Client  *http.Client
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Client == nil {
		o.Client = httpclient.New(httpclient.Config{Timeout: o.Timeout})
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// New returns the adapter matching the source format.
func New(src models.Source, opts Options) (Adapter, error) {
	base := fetcher{source: src, opts: opts.withDefaults()}
	switch src.Format {
	case models.FormatRSS, "":
		base.accept = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"
		return &RSSAdapter{fetcher: base}, nil
	case models.FormatJSON:
		base.accept = "application/json"
		return &JSONAdapter{fetcher: base}, nil
	default:
		return nil, fmt.Errorf("source %s: unsupported format %q", src.Name, src.Format)
	}
}

// AdaptersFromConfig builds one adapter per configured source sharing a
// single traced HTTP client.
func AdaptersFromConfig(cfg config.AppConfig) ([]Adapter, error) {
	client := httpclient.New(httpclient.Config{
		Timeout:   cfg.Aggregation.SourceTimeout,
		UserAgent: cfg.Aggregation.UserAgent,
	})
	opts := Options{
		Limit:   cfg.Aggregation.PerSourceLimit,
		Timeout: cfg.Aggregation.SourceTimeout,
		Client:  client,
	}

	adapters := make([]Adapter, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		a, err := New(models.Source{
			Name:      s.Name,
			Endpoint:  s.Endpoint,
			Format:    models.SourceFormat(s.Format),
			Language:  s.Language,
			APIKeyEnv: s.APIKeyEnv,
		}, opts)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// fetcher holds what every adapter shares: the descriptor, the HTTP client
// and item validation.
type fetcher struct {
	source models.Source
	opts   Options
	accept string
}

func (f *fetcher) Source() models.Source { return f.source }

func (f *fetcher) unavailable(format string, args ...any) error {
	return fmt.Errorf("source %s: %w: %s", f.source.Name, ErrSourceUnavailable, fmt.Sprintf(format, args...))
}

// get downloads the endpoint. The returned body is capped at maxBodyBytes.
func (f *fetcher) get(ctx context.Context, endpoint string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", f.unavailable("build request: %v", err)
	}
	req.Header.Set("Accept", f.accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "max-age=0")

	resp, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, "", f.unavailable("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodySample, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, "", f.unavailable("status code %d, body: %s", resp.StatusCode, strings.TrimSpace(string(bodySample)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", f.unavailable("read body: %v", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// candidate is an item as extracted from a source before validation.
type candidate struct {
	Title       string
	Description string
	Link        string
	ImageURL    string
	PublishedAt time.Time
	Author      string
	SourceName  string
}

// collector validates candidates, drops duplicates and enforces the limit.
type collector struct {
	f       *fetcher
	base    *url.URL
	now     time.Time
	seen    map[string]bool
	items   []models.RawItem
	skipped int
}

func (f *fetcher) newCollector(endpoint string) *collector {
	base, _ := url.Parse(endpoint)
	return &collector{
		f:    f,
		base: base,
		now:  f.opts.Now().UTC(),
		seen: map[string]bool{},
	}
}

func (c *collector) full() bool {
	return len(c.items) >= c.f.opts.Limit
}

// add validates one candidate. Malformed items are counted and skipped.
func (c *collector) add(in candidate) {
	item, err := c.build(in)
	if err != nil {
		c.skipped++
		config.DebugWithFields("skipping feed item", config.Fields{
			"source": c.f.source.Name,
			"error":  err.Error(),
		})
		return
	}
	if c.seen[item.Link] {
		return
	}
	c.seen[item.Link] = true
	c.items = append(c.items, item)
}

func (c *collector) build(in candidate) (models.RawItem, error) {
	title := CleanText(in.Title)
	if len([]rune(title)) < minTitleRunes || strings.EqualFold(title, removedPlaceholder) {
		return models.RawItem{}, fmt.Errorf("%w: title %q too short", ErrItemMalformed, title)
	}
	link, ok := c.absolute(in.Link)
	if !ok {
		return models.RawItem{}, fmt.Errorf("%w: invalid link %q", ErrItemMalformed, in.Link)
	}

	item := models.RawItem{
		Title:       title,
		Description: Truncate(CleanText(in.Description), maxDescRunes),
		Link:        link,
		SourceName:  strings.TrimSpace(in.SourceName),
		PublishedAt: in.PublishedAt.UTC(),
		Author:      CleanText(in.Author),
	}
	if item.SourceName == "" {
		item.SourceName = c.f.source.Name
	}
	if img, ok := c.absolute(in.ImageURL); ok {
		item.ImageURL = img
	}
	if in.PublishedAt.IsZero() {
		item.PublishedAt = c.now
	}
	if item.Author == "" {
		item.Author = item.SourceName
	}
	return item, nil
}

// absolute resolves raw against the source endpoint and accepts only http(s) URLs.
func (c *collector) absolute(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() && c.base != nil {
		u = c.base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

func (c *collector) result() []models.RawItem {
	config.DebugWithFields("source fetched", config.Fields{
		"source":  c.f.source.Name,
		"items":   len(c.items),
		"skipped": c.skipped,
	})
	return c.items
}
