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
)

// retryworker runs only the retry reinjectors, for deployments that scale
// them apart from the aggregate worker.
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)

	if !cfg.Kafka.Enabled {
		config.Logger.Error("retry worker requires kafka.enabled")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, err := eventbus.FromConfig(cfg.Kafka)
	if err != nil {
		config.Logger.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range eventbus.AllTopics {
		topic := t
		g.Go(func() error {
			return bus.StartRetryReinjector(ctx, eventbus.RetryGroupID(cfg.Kafka.GroupID, topic), topic)
		})
	}

	config.Logger.Info("retry worker started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		config.Logger.Errorf("retry worker stopped: %v", err)
		return
	}
	config.Logger.Info("retry worker stopped")
}
