package services

import (
	"context"
	"fmt"

	"news-pulse/aggregator"
	"news-pulse/cluster"
	"news-pulse/config"
	"news-pulse/db"
	"news-pulse/eventbus"
	"news-pulse/events"
	"news-pulse/feeder"
	"news-pulse/ranking"
	"news-pulse/repositories"
	"news-pulse/snapshotcache"
)

// Pipeline holds every component built from configuration. Clusters and
// Preferences are nil unless Mongo is enabled.
type Pipeline struct {
	Aggregator  *aggregator.FeedAggregator
	Ranker      *ranking.Ranker
	Cache       *snapshotcache.FallbackCache
	Clusters    *repositories.ClusterRepository
	Preferences *repositories.PreferenceRepository
	Bus         eventbus.EventBus

	sqlite *snapshotcache.SQLiteStore
}

// BuildPipeline connects Mongo and Kafka when enabled and assembles the
// aggregation pipeline.
func BuildPipeline(ctx context.Context, cfg config.AppConfig) (*Pipeline, error) {
	adapters, err := feeder.AdaptersFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build adapters: %w", err)
	}
	ranker := ranking.New(ranking.WeightsFromConfig(cfg.Scoring))
	clusterer := cluster.New(cluster.Options{
		Threshold: cfg.Clustering.SimilarityThreshold,
		Window:    cfg.Clustering.RecencyWindow,
		Bypass:    cfg.Clustering.Bypass,
	})
	p := &Pipeline{
		Aggregator: aggregator.New(adapters, clusterer, ranker, aggregator.Options{
			RunDeadline: cfg.Aggregation.RunDeadline,
			PageSize:    cfg.Aggregation.PageSize,
		}),
		Ranker: ranker,
	}

	var store snapshotcache.Store = snapshotcache.NewMemoryStore()
	if cfg.Mongo.Enabled {
		if err := db.Init(ctx); err != nil {
			return nil, fmt.Errorf("init mongo: %w", err)
		}
		p.Clusters = repositories.NewClusterRepository(db.Database(), cfg.Aggregation.ClusterRetention)
		p.Preferences = repositories.NewPreferenceRepository(db.Database())
		if cfg.Cache.Backend == "mongo" {
			store = repositories.NewSnapshotRepository(db.Database())
		}
	} else if cfg.Cache.Backend == "mongo" {
		return nil, fmt.Errorf("cache.backend mongo requires mongo.enabled")
	}
	if cfg.Cache.Backend == "sqlite" {
		s, err := snapshotcache.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		p.sqlite = s
		store = s
	}
	p.Cache = snapshotcache.New(store, snapshotcache.Options{StalenessCeiling: cfg.Cache.StalenessCeiling})

	bus, err := eventbus.FromConfig(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("init event bus: %w", err)
	}
	p.Bus = bus

	config.InfoWithFields("pipeline built", config.Fields{
		"sources":       len(adapters),
		"cache_backend": cfg.Cache.Backend,
		"mongo":         cfg.Mongo.Enabled,
		"kafka":         cfg.Kafka.Enabled,
		"clustering":    !cfg.Clustering.Bypass,
	})
	return p, nil
}

// FeedService builds the request-facing service; source tags published events.
func (p *Pipeline) FeedService(cfg config.AppConfig, source string) *FeedService {
	var clusters ClusterStore
	if p.Clusters != nil {
		clusters = p.Clusters
	}
	var prefs PreferenceProvider
	if p.Preferences != nil {
		prefs = p.Preferences
	}
	return NewFeedService(p.Aggregator, p.Cache, p.Ranker, clusters, prefs,
		events.NewDispatcher(p.Bus, source),
		FeedOptions{
			DefaultPageSize:    cfg.Aggregation.PageSize,
			MaxPageSize:        cfg.Aggregation.MaxPageSize,
			MaterializedMaxAge: cfg.Aggregation.MaterializedMaxAge,
		})
}

// Close releases every backend the pipeline opened.
func (p *Pipeline) Close(ctx context.Context) {
	if p.Bus != nil {
		p.Bus.Close()
	}
	if p.sqlite != nil {
		if err := p.sqlite.Close(); err != nil {
			config.WarnWithFields("sqlite close failed", config.Fields{"error": err.Error()})
		}
	}
	if err := db.Disconnect(ctx); err != nil {
		config.WarnWithFields("mongo disconnect failed", config.Fields{"error": err.Error()})
	}
}
