package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/enums"
)

// conn is the subset of *websocket.Conn the client uses, split out so hub and
// client tests can run without real connections.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type subscriptionKey struct {
	Type     enums.SubscriptionType
	TargetID string
}

// Client is one authenticated websocket connection.
type Client struct {
	ID       string
	WorkerID uuid.UUID
	Role     enums.WorkerRole

	conn conn

	sendMu sync.Mutex
	send   chan []byte
	closed bool

	mu   sync.RWMutex
	subs map[subscriptionKey]struct{}

	writeTimeout time.Duration
	pingInterval time.Duration
}

// NewClient wraps an upgraded connection.
func NewClient(c *websocket.Conn, workerID uuid.UUID, role enums.WorkerRole, cfg config.SocketConfig) *Client {
	return newClient(c, workerID, role, cfg)
}

func newClient(c conn, workerID uuid.UUID, role enums.WorkerRole, cfg config.SocketConfig) *Client {
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	pingInterval := cfg.PingInterval
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		ID:           uuid.NewString(),
		WorkerID:     workerID,
		Role:         role,
		conn:         c,
		send:         make(chan []byte, sendBuffer),
		subs:         make(map[subscriptionKey]struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

func (c *Client) addSubscription(key subscriptionKey) {
	c.mu.Lock()
	c.subs[key] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) removeSubscription(key subscriptionKey) {
	c.mu.Lock()
	delete(c.subs, key)
	c.mu.Unlock()
}

// IsSubscribed reports whether the client watches the given target.
func (c *Client) IsSubscribed(subType enums.SubscriptionType, targetID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[subscriptionKey{Type: subType, TargetID: targetID}]
	return ok
}

func (c *Client) subscriptions() []subscriptionKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]subscriptionKey, 0, len(c.subs))
	for key := range c.subs {
		keys = append(keys, key)
	}
	return keys
}

// Push queues a message for delivery. A client that cannot keep up loses the
// message rather than stalling the hub, and a client that already disconnected
// swallows it. Safe to race with Unregister.
func (c *Client) Push(msg []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// closeSend shuts the send channel exactly once so the write loop terminates.
// Later pushes become no-ops instead of sends on a closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WriteLoop drains the send channel onto the wire with periodic pings. It
// returns when the context ends or the send channel closes.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.Close()
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.Close()
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

// ReadLoop consumes subscribe/unsubscribe frames until the connection drops,
// then unregisters the client.
func (c *Client) ReadLoop(ctx context.Context, hub *Hub) {
	defer hub.Unregister(c)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleFrame(hub, raw)
	}
}

func (c *Client) handleFrame(hub *Hub, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return
	}
	switch frame.Event {
	case frameSubscribe, frameUnsubscribe:
		var req SubscribeRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			return
		}
		if !req.Type.IsValid() || req.TargetID == "" {
			return
		}
		if frame.Event == frameSubscribe {
			hub.Subscribe(c, req.Type, req.TargetID)
		} else {
			hub.Unsubscribe(c, req.Type, req.TargetID)
		}
		c.confirmSubscription(req.Type)
	}
}

func (c *Client) confirmSubscription(subType enums.SubscriptionType) {
	payload, err := json.Marshal(Frame{
		Event: frameSubscriptionUpdate,
		Data:  json.RawMessage(`{"type":"` + subType.String() + `"}`),
	})
	if err != nil {
		return
	}
	c.Push(payload)
}
