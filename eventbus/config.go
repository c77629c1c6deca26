package eventbus

import (
	"context"
	"fmt"

	"news-pulse/config"
)

// FromConfig returns a Kafka bus when kafka is enabled, otherwise a NopEventBus.
// Topics are ensured before the bus is returned.
func FromConfig(cfg config.KafkaConfig) (EventBus, error) {
	if !cfg.Enabled {
		return NopEventBus{}, nil
	}
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if err := EnsureTopics(context.Background(), cfg.Brokers, AllTopics, cfg.Partitions); err != nil {
		config.WarnWithFields("ensure topics failed", config.Fields{
			"brokers": cfg.Brokers,
			"error":   err.Error(),
		})
	}
	return NewKafkaEventBus(cfg.Brokers)
}
