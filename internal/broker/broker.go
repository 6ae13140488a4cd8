// Package broker fans forum events out to live feed subscribers.
package broker

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventThreadCreated  = "thread.created"
	EventThreadDeleted  = "thread.deleted"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
	EventVoteCast       = "vote.cast"
)

// Channel is the Redis pub/sub channel carrying events.
const Channel = "buildtalk:events"

const subscriberBuffer = 64

type Event struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewEvent encodes data as the event payload.
func NewEvent(eventType string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: raw, OccurredAt: time.Now().UTC()}, nil
}

// EventBroker publishes events to every live subscriber. A subscription
// channel is closed once its context is cancelled or the broker closes.
type EventBroker interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
