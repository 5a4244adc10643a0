package socket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePubSub struct {
	mu         sync.Mutex
	messages   map[string][]string
	publishErr error
	handler    func(channel string, payload []byte)
	subscribed chan struct{}
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{
		messages:   make(map[string][]string),
		subscribed: make(chan struct{}),
	}
}

func (f *fakePubSub) Publish(ctx context.Context, channel string, payload any) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	raw := payload.(string)
	f.mu.Lock()
	f.messages[channel] = append(f.messages[channel], raw)
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(channel, []byte(raw))
	}
	return nil
}

func (f *fakePubSub) Subscribe(ctx context.Context, channels []string, handler func(channel string, payload []byte)) error {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
	close(f.subscribed)
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakePubSub) EventsChannel(subscriptionType string) string {
	return "toite:events:" + subscriptionType
}

func (f *fakePubSub) deliver(channel string, payload []byte) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(channel, payload)
	}
}

func drainFrameEventually(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case raw := <-client.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}
