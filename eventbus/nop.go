package eventbus

import (
	"context"

	"news-pulse/config"
)

// NopEventBus drops published events. Subscribers block until ctx ends.
type NopEventBus struct{}

func (NopEventBus) Publish(ctx context.Context, topic string, event Event) error {
	config.DebugWithFields("event dropped, bus disabled", config.Fields{
		"topic":    topic,
		"event_id": event.ID,
	})
	return nil
}

func (NopEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (NopEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	<-ctx.Done()
	return ctx.Err()
}

func (NopEventBus) Close() {}
