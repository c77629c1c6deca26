package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RetryDelays are the fixed delays per retry attempt (1-based).
var RetryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
}

// Topic names a base topic together with its retry and DLQ topics.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ returns the dead-letter topic name, e.g. base.dlq.
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics returns every retry topic name, e.g. base.retry.10s.
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i, delay := range RetryDelays {
		topics[i] = fmt.Sprintf("%s.retry.%s", t.base, delay.String())
	}
	return topics
}

// GetRetryTopic returns the retry topic for the given attempt (1-based).
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return fmt.Sprintf("%s.retry.%s", t.base, RetryDelays[retryCount-1].String()), nil
}

// ParseRetryFromTopicName extracts the delay encoded after ".retry." in a
// topic name: "news-pulse.feed.events.retry.1m0s" -> 1m0s.
func ParseRetryFromTopicName(name string) (time.Duration, bool) {
	idx := strings.LastIndex(name, ".retry.")
	if idx == -1 || idx+7 >= len(name) {
		return 0, false
	}
	d, err := time.ParseDuration(name[idx+7:])
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// Event is the envelope carried as a Kafka message value.
type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes events and runs subscribers with delayed retries.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe consumes the base topic and runs handler for each event.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	// StartRetryReinjector moves due events from the retry topics back to the base topic.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

var ErrMaxRetryExceeded = errors.New("max retry exceeded")

var ErrRetryScheduleFailed = errors.New("failed to schedule retry or dlq")
