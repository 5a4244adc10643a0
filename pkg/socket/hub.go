package socket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

// Hub tracks this gateway instance's live connections and their subscriptions.
// Fan-out is strictly best effort: disconnected or slow clients miss events.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	targets map[subscriptionKey]map[*Client]struct{}

	logg *logger.Logger
}

func NewHub(logg *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		targets: make(map[subscriptionKey]map[*Client]struct{}),
		logg:    logg,
	}
}

// Register adds a connected client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

// Unregister drops a client and every subscription it held, and closes its
// send channel so the write loop terminates.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	for _, key := range client.subscriptions() {
		if subscribers, ok := h.targets[key]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.targets, key)
			}
		}
	}
	delete(h.clients, client.ID)
	client.closeSend()
}

// Subscribe registers the client's interest in a target.
func (h *Hub) Subscribe(client *Client, subType enums.SubscriptionType, targetID string) {
	key := subscriptionKey{Type: subType, TargetID: targetID}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if _, ok := h.targets[key]; !ok {
		h.targets[key] = make(map[*Client]struct{})
	}
	h.targets[key][client] = struct{}{}
	client.addSubscription(key)
}

// Unsubscribe removes the client's interest in a target.
func (h *Hub) Unsubscribe(client *Client, subType enums.SubscriptionType, targetID string) {
	key := subscriptionKey{Type: subType, TargetID: targetID}
	h.mu.Lock()
	defer h.mu.Unlock()
	if subscribers, ok := h.targets[key]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.targets, key)
		}
	}
	client.removeSubscription(key)
}

// ResolveRecipients returns the clients currently subscribed to a target.
func (h *Hub) ResolveRecipients(subType enums.SubscriptionType, targetID string) []*Client {
	key := subscriptionKey{Type: subType, TargetID: targetID}
	h.mu.RLock()
	defer h.mu.RUnlock()
	subscribers := h.targets[key]
	out := make([]*Client, 0, len(subscribers))
	for client := range subscribers {
		out = append(out, client)
	}
	return out
}

// Deliver pushes an event to every local subscriber of its target.
func (h *Hub) Deliver(ctx context.Context, event Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		if h.logg != nil {
			h.logg.Error(ctx, "encode socket event", err)
		}
		return
	}
	frame, err := json.Marshal(Frame{Event: frameEvent, Data: raw})
	if err != nil {
		return
	}
	for _, client := range h.ResolveRecipients(event.Type, event.TargetID) {
		client.Push(frame)
	}
}

// ClientCount reports connected clients, for readiness and metrics.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
