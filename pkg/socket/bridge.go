package socket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

type subscriber interface {
	Subscribe(ctx context.Context, channels []string, handler func(channel string, payload []byte)) error
	EventsChannel(subscriptionType string) string
}

// Bridge relays event envelopes from Redis pub/sub into the local hub so a
// worker on one instance reaches subscribers connected to another.
type Bridge struct {
	sub  subscriber
	hub  *Hub
	logg *logger.Logger
}

func NewBridge(sub subscriber, hub *Hub, logg *logger.Logger) (*Bridge, error) {
	if sub == nil {
		return nil, errors.New("bridge requires a redis subscriber")
	}
	if hub == nil {
		return nil, errors.New("bridge requires a hub")
	}
	return &Bridge{sub: sub, hub: hub, logg: logg}, nil
}

// Run blocks relaying every subscription type's channel until ctx ends.
func (b *Bridge) Run(ctx context.Context) error {
	channels := make([]string, 0, len(enums.SubscriptionTypes()))
	for _, subType := range enums.SubscriptionTypes() {
		channels = append(channels, b.sub.EventsChannel(subType.String()))
	}
	return b.sub.Subscribe(ctx, channels, func(channel string, payload []byte) {
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			if b.logg != nil {
				b.logg.Warn(ctx, "drop malformed socket envelope: "+err.Error())
			}
			return
		}
		b.hub.Deliver(ctx, event)
	})
}
