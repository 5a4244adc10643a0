package socket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/enums"
)

// Event is the envelope fanned out to subscribers. Delivery is at-least-once
// across gateway instances; the ID lets clients dedupe.
type Event struct {
	ID         string                 `json:"id"`
	Type       enums.SubscriptionType `json:"type"`
	TargetID   string                 `json:"targetId"`
	Name       string                 `json:"name"`
	Data       json.RawMessage        `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// NewEvent builds an envelope with a fresh id and timestamp.
func NewEvent(subType enums.SubscriptionType, targetID, name string, data any) (Event, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		raw = encoded
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       subType,
		TargetID:   targetID,
		Name:       name,
		Data:       raw,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// Frame is one JSON message exchanged with a connected client.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SubscribeRequest is the payload of subscribe/unsubscribe frames.
type SubscribeRequest struct {
	Type     enums.SubscriptionType `json:"type"`
	TargetID string                 `json:"targetId"`
}

const (
	frameSubscribe          = "subscribe"
	frameUnsubscribe        = "unsubscribe"
	frameSubscriptionUpdate = "subscription:update"
	frameEvent              = "event"
)
