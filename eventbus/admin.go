package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const adminTimeout = 30 * time.Second

// Specifications lists the topics a Topic needs on the broker. Retry topics
// share the base partition count; the DLQ has one partition.
func (t Topic) Specifications(partitions int) []kafka.TopicSpecification {
	if partitions <= 0 {
		partitions = 1
	}
	names := append([]string{t.Base()}, t.GetRetryTopics()...)
	specs := make([]kafka.TopicSpecification, 0, len(names)+1)
	for _, name := range names {
		specs = append(specs, kafka.TopicSpecification{Topic: name, NumPartitions: partitions, ReplicationFactor: 1})
	}
	return append(specs, kafka.TopicSpecification{Topic: t.DLQ(), NumPartitions: 1, ReplicationFactor: 1})
}

// EnsureTopics creates every topic of topics in one admin round trip.
// Topics that already exist are left as they are.
func EnsureTopics(ctx context.Context, brokers string, topics []Topic, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return fmt.Errorf("create admin client: %w", err)
	}
	defer admin.Close()

	var specs []kafka.TopicSpecification
	for _, t := range topics {
		specs = append(specs, t.Specifications(partitions)...)
	}

	ctx, cancel := context.WithTimeout(ctx, adminTimeout)
	defer cancel()
	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, r := range results {
		switch r.Error.Code() {
		case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
		default:
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Error)
		}
	}
	return nil
}
