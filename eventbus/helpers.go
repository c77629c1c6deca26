package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewJSONEvent wraps payload as JSON. An empty id gets a fresh uuid.
func NewJSONEvent(id string, payload any, maxRetry int) (Event, error) {
	if maxRetry <= 0 || maxRetry > len(RetryDelays) {
		maxRetry = len(RetryDelays)
	}
	if id == "" {
		id = uuid.NewString()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Event{
		ID:       id,
		Payload:  b,
		MaxRetry: maxRetry,
	}, nil
}

func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("unmarshal payload: %w", err)
	}
	return out, nil
}

// SubscribeJSON decodes each payload into T before calling handler.
func SubscribeJSON[T any](ctx context.Context, bus EventBus, groupID string, topic Topic, handler func(ctx context.Context, payload T, meta Event) error) error {
	return bus.Subscribe(ctx, groupID, topic, func(ctx context.Context, evt Event) error {
		v, err := DecodeJSON[T](evt)
		if err != nil {
			return err
		}
		return handler(ctx, v, evt)
	})
}
