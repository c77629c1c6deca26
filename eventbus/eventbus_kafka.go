package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"news-pulse/config"
)

// KafkaEventBus is the confluent-kafka-go EventBus.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
}

func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	// delivery reports
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					config.ErrorWithFields("kafka delivery failed", config.Fields{
						"partition": ev.TopicPartition.String(),
						"error":     ev.TopicPartition.Error.Error(),
					})
				}
			case kafka.Error:
				config.ErrorWithFields("kafka error", config.Fields{"error": ev.Error()})
			}
		}
	}()

	return &KafkaEventBus{Producer: p, Brokers: brokers}, nil
}

// Close flushes pending messages for up to five seconds.
func (k *KafkaEventBus) Close() {
	if k.Producer == nil {
		return
	}
	if remaining := k.Producer.Flush(5000); remaining > 0 {
		config.Logger.Warnf("%d messages left unflushed", remaining)
	}
	k.Producer.Close()
	config.Logger.Info("kafka producer closed")
}

func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	select {
	case ev := <-deliveryChan:
		m := ev.(*kafka.Message)
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver to %s: %w", topic, m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// failureDestination decides where a failed event goes next: the retry topic
// for its next attempt, or the DLQ once retries are used up.
func failureDestination(topic Topic, evt Event, handlerErr error) (string, Event) {
	evt.LastError = handlerErr.Error()
	next := evt.Retry + 1
	if next > evt.MaxRetry {
		return topic.DLQ(), evt
	}
	retryTopic, err := topic.GetRetryTopic(next)
	if err != nil {
		return topic.DLQ(), evt
	}
	evt.Retry = next
	return retryTopic, evt
}

// retryWait is how long the reinjector should pause before a retry message
// produced at ts with the given delay becomes due. Zero means due now.
func retryWait(ts time.Time, delay time.Duration, now time.Time) time.Duration {
	readyAt := ts.Add(delay)
	if !now.Before(readyAt) {
		return 0
	}
	wait := readyAt.Sub(now)
	if wait > 500*time.Millisecond {
		wait = 500 * time.Millisecond
	} else if wait < 50*time.Millisecond {
		wait = 50 * time.Millisecond
	}
	return wait
}

// sleepCtx pauses for d. It returns false when ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// rewind seeks back to msg so the next read returns it again. Committing a
// later offset on the partition would otherwise skip it.
func rewind(c *kafka.Consumer, msg *kafka.Message) {
	if err := c.Seek(msg.TopicPartition, 0); err != nil {
		config.WarnWithFields("seek failed", config.Fields{
			"topic":     *msg.TopicPartition.Topic,
			"partition": msg.TopicPartition.Partition,
			"offset":    msg.TopicPartition.Offset.String(),
			"error":     err.Error(),
		})
	}
}

func (k *KafkaEventBus) newConsumer(groupID string) (*kafka.Consumer, error) {
	return kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false,
		"partition.assignment.strategy": "range",
	})
}

// Subscribe consumes the base topic. Offsets are committed only after the
// handler succeeds or the event was rescheduled to a retry or DLQ topic.
func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer c.Close()

	if err := c.SubscribeTopics([]string{topic.Base()}, nil); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic.Base(), err)
	}
	config.InfoWithFields("consumer started", config.Fields{"group_id": groupID, "topic": topic.Base()})

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("consumer stopping")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			config.ErrorWithFields("undecodable event skipped", config.Fields{
				"topic": *msg.TopicPartition.Topic,
				"error": err.Error(),
			})
			c.CommitMessage(msg)
			continue
		}
		if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
			evt.MaxRetry = len(RetryDelays)
		}

		config.DebugWithFields("handling event", config.Fields{
			"event_id": evt.ID,
			"retry":    evt.Retry,
			"topic":    *msg.TopicPartition.Topic,
		})
		if herr := handler(ctx, evt); herr != nil {
			dest, next := failureDestination(topic, evt, herr)
			fields := config.Fields{
				"event_id":    evt.ID,
				"retry":       next.Retry,
				"max_retry":   next.MaxRetry,
				"destination": dest,
				"error":       herr.Error(),
			}
			if dest == topic.DLQ() {
				config.ErrorWithFields("event exhausted retries, sending to dlq", fields)
			} else {
				config.WarnWithFields("event failed, retry scheduled", fields)
			}
			if perr := k.Publish(ctx, dest, next); perr != nil {
				config.ErrorWithFields("reschedule failed, offset not committed", config.Fields{
					"event_id":    evt.ID,
					"destination": dest,
					"error":       fmt.Errorf("%w: %v", ErrRetryScheduleFailed, perr).Error(),
				})
				rewind(c, msg)
				continue
			}
		}

		if _, err := c.CommitMessage(msg); err != nil {
			config.ErrorWithFields("commit failed", config.Fields{"error": err.Error()})
		}
	}
}

// StartRetryReinjector consumes every retry topic and republishes due events
// to the base topic.
func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return fmt.Errorf("create retry reinjector: %w", err)
	}
	defer c.Close()

	retryTopics := topic.GetRetryTopics()
	if err := c.SubscribeTopics(retryTopics, nil); err != nil {
		return fmt.Errorf("subscribe retry topics: %w", err)
	}
	config.InfoWithFields("retry reinjector started", config.Fields{
		"group_id": groupID,
		"topics":   strings.Join(retryTopics, ","),
	})

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("retry reinjector stopping")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok {
				if kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kerr.IsFatal() {
					return fmt.Errorf("retry reinjector fatal: %w", err)
				}
			}
			config.ErrorWithFields("retry reinjector read failed", config.Fields{"error": err.Error()})
			if !sleepCtx(ctx, 500*time.Millisecond) {
				return ctx.Err()
			}
			continue
		}

		topicName := *msg.TopicPartition.Topic
		delay, ok := ParseRetryFromTopicName(topicName)
		if !ok {
			config.ErrorWithFields("unparsable retry topic, skipping", config.Fields{"topic": topicName})
			c.CommitMessage(msg)
			continue
		}
		if wait := retryWait(msg.Timestamp, delay, time.Now()); wait > 0 {
			if !sleepCtx(ctx, wait) {
				config.Logger.Info("retry reinjector stopping")
				return ctx.Err()
			}
			rewind(c, msg)
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			config.ErrorWithFields("undecodable retry event skipped", config.Fields{
				"topic": topicName,
				"error": err.Error(),
			})
			c.CommitMessage(msg)
			continue
		}

		config.InfoWithFields("reinjecting event", config.Fields{
			"event_id": evt.ID,
			"from":     topicName,
			"to":       topic.Base(),
			"retry":    evt.Retry,
		})
		if err := k.Publish(ctx, topic.Base(), evt); err != nil {
			config.ErrorWithFields("reinject failed, offset not committed", config.Fields{
				"event_id": evt.ID,
				"error":    err.Error(),
			})
			rewind(c, msg)
			continue
		}
		if _, err := c.CommitMessage(msg); err != nil {
			config.ErrorWithFields("commit after reinject failed", config.Fields{"error": err.Error()})
		}
	}
}
