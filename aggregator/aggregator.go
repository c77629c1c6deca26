// Package aggregator runs one live feed aggregation: concurrent source
// fetches, normalization, clustering and ranking.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"news-pulse/cluster"
	"news-pulse/config"
	"news-pulse/feeder"
	"news-pulse/models"
	"news-pulse/ranking"
	"news-pulse/trace"
)

// ErrAggregationFailed is returned when no source produced any item.
var ErrAggregationFailed = errors.New("aggregation failed")

const (
	DefaultRunDeadline = 15 * time.Second
	DefaultPageSize    = 20
)

type Options struct {
	RunDeadline time.Duration
	PageSize    int
	Now         func() time.Time
}

type FeedAggregator struct {
	adapters  []feeder.Adapter
	clusterer *cluster.Clusterer
	ranker    *ranking.Ranker
	opts      Options
}

func New(adapters []feeder.Adapter, clusterer *cluster.Clusterer, ranker *ranking.Ranker, opts Options) *FeedAggregator {
	if opts.RunDeadline <= 0 {
		opts.RunDeadline = DefaultRunDeadline
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FeedAggregator{adapters: adapters, clusterer: clusterer, ranker: ranker, opts: opts}
}

// Sources lists the configured source descriptors.
func (a *FeedAggregator) Sources() []models.Source {
	out := make([]models.Source, 0, len(a.adapters))
	for _, ad := range a.adapters {
		out = append(out, ad.Source())
	}
	return out
}

type sourceResult struct {
	source string
	items  []models.RawItem
	err    error
	took   time.Duration
}

// Run fetches every selected source concurrently within the run deadline
// and returns a ranked live snapshot. Sources that fail, return nothing or
// miss the deadline are left out; if none contributes, the error wraps
// ErrAggregationFailed.
func (a *FeedAggregator) Run(ctx context.Context, req models.FeedRequest, profile *ranking.Profile) (models.FeedSnapshot, error) {
	start := time.Now()
	ctx = trace.Ensure(ctx)
	runCtx, cancel := context.WithTimeout(ctx, a.opts.RunDeadline)
	defer cancel()

	adapters := a.selectSources(req.Language)
	if len(adapters) == 0 {
		return models.FeedSnapshot{}, fmt.Errorf("%w: no sources configured", ErrAggregationFailed)
	}

	// buffered so abandoned fetches never block
	results := make(chan sourceResult, len(adapters))
	for _, ad := range adapters {
		go func(ad feeder.Adapter) {
			t := time.Now()
			items, err := ad.Fetch(runCtx)
			results <- sourceResult{source: ad.Source().Name, items: items, err: err, took: time.Since(t)}
		}(ad)
	}

	batches := make(map[string][]models.RawItem, len(adapters))
	var failed []string
	pending := len(adapters)
collect:
	for pending > 0 {
		select {
		case r := <-results:
			pending--
			switch {
			case r.err != nil:
				failed = append(failed, r.source)
				config.WarnWithFields("source excluded from aggregation", config.Fields{
					"source":     r.source,
					"error":      r.err.Error(),
					"duration":   r.took.String(),
					"request_id": trace.RequestIDFromContext(ctx),
				})
			case len(r.items) == 0:
				failed = append(failed, r.source)
				config.InfoWithFields("source returned no items", config.Fields{
					"source":     r.source,
					"request_id": trace.RequestIDFromContext(ctx),
				})
			default:
				batches[r.source] = r.items
			}
		case <-runCtx.Done():
			config.WarnWithFields("aggregation deadline reached", config.Fields{
				"abandoned":  pending,
				"deadline":   a.opts.RunDeadline.String(),
				"request_id": trace.RequestIDFromContext(ctx),
			})
			break collect
		}
	}

	names := make([]string, 0, len(batches))
	for name := range batches {
		names = append(names, name)
	}
	sort.Strings(names)
	var raw []models.RawItem
	for _, name := range names {
		raw = append(raw, batches[name]...)
	}
	if len(raw) == 0 {
		return models.FeedSnapshot{}, fmt.Errorf("%w: none of %d sources returned items", ErrAggregationFailed, len(adapters))
	}

	now := a.opts.Now().UTC()
	articles := FilterTopics(NormalizeAll(raw), req.Topics)
	clusters := a.clusterer.Cluster(articles)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = a.opts.PageSize
	}
	ranked := a.ranker.Rank(clusters, now, profile, pageSize)

	snap := models.FeedSnapshot{
		ID:        uuid.NewString(),
		Clusters:  ranked,
		CreatedAt: now,
		Origin:    models.OriginLive,
	}
	config.InfoWithFields("aggregation run completed", config.Fields{
		"sources_ok":     len(names),
		"sources_failed": len(adapters) - len(names),
		"failed":         strings.Join(failed, ","),
		"articles":       len(articles),
		"clusters":       len(clusters),
		"returned":       len(ranked),
		"duration":       time.Since(start).String(),
		"request_id":     trace.RequestIDFromContext(ctx),
	})
	return snap, nil
}

// selectSources keeps sources tagged with the requested language or with
// no language. When nothing matches every source is used.
func (a *FeedAggregator) selectSources(language string) []feeder.Adapter {
	if language == "" {
		return a.adapters
	}
	var out []feeder.Adapter
	for _, ad := range a.adapters {
		l := ad.Source().Language
		if l == "" || strings.EqualFold(l, language) {
			out = append(out, ad)
		}
	}
	if len(out) == 0 {
		return a.adapters
	}
	return out
}
