package socket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	EventsChannel(subscriptionType string) string
}

// Emitter publishes event envelopes to the per-type Redis channel. Worker
// processes emit without holding any websocket state; every gateway instance's
// bridge picks the envelope up and fans out locally.
type Emitter struct {
	pub  publisher
	logg *logger.Logger
}

func NewEmitter(pub publisher, logg *logger.Logger) (*Emitter, error) {
	if pub == nil {
		return nil, errors.New("emitter requires a redis publisher")
	}
	return &Emitter{pub: pub, logg: logg}, nil
}

// Emit publishes one event. Fan-out is best effort, so publish errors are
// logged and swallowed.
func (e *Emitter) Emit(ctx context.Context, subType enums.SubscriptionType, targetID, name string, data any) {
	event, err := NewEvent(subType, targetID, name, data)
	if err != nil {
		if e.logg != nil {
			e.logg.Error(ctx, "encode socket event payload", err)
		}
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := e.pub.EventsChannel(subType.String())
	if err := e.pub.Publish(ctx, channel, string(raw)); err != nil && e.logg != nil {
		e.logg.Warn(ctx, "socket event publish failed: "+err.Error())
	}
}
