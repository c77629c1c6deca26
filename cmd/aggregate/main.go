package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"news-pulse/config"
	"news-pulse/eventbus"
	"news-pulse/services"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := services.BuildPipeline(ctx, cfg)
	if err != nil {
		config.Logger.Errorf("failed to build pipeline: %v", err)
		os.Exit(1)
	}
	defer pipeline.Close(context.Background())

	var cleaner ExpiredClusterCleaner
	if pipeline.Clusters != nil {
		cleaner = pipeline.Clusters
	}
	worker := NewAggregateService(pipeline.FeedService(cfg, "aggregate"), cleaner, cfg)
	groupID := cfg.Kafka.GroupID

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.RunPeriodic(ctx, cfg.Aggregation.RefreshInterval)
	})
	g.Go(func() error {
		return worker.Subscribe(ctx, pipeline.Bus, groupID)
	})
	g.Go(func() error {
		return pipeline.Bus.StartRetryReinjector(ctx, eventbus.RetryGroupID(groupID, eventbus.TopicFeedEvents), eventbus.TopicFeedEvents)
	})

	config.InfoWithFields("aggregate worker started", config.Fields{
		"interval": cfg.Aggregation.RefreshInterval.String(),
		"kafka":    cfg.Kafka.Enabled,
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		config.Logger.Errorf("aggregate worker stopped: %v", err)
		os.Exit(1)
	}
	config.Logger.Info("aggregate worker stopped")
}
