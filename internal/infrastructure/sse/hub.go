package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/execution-hub/commission-bot/internal/domain/notification"
)

// Hub manages operator SSE clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*notification.SSEClient
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*notification.SSEClient),
	}
}

func (h *Hub) Register(client *notification.SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastToAll(message *notification.SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		trySend(c, message)
	}
}

func (h *Hub) BroadcastToUser(userID string, message *notification.SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.UserID != nil && *c.UserID == userID {
			trySend(c, message)
		}
	}
}

func (h *Hub) SendToClient(clientID string, message *notification.SSEMessage) error {
	h.mu.RLock()
	c := h.clients[clientID]
	h.mu.RUnlock()
	if c == nil {
		return notification.ErrClientNotFound
	}
	if !trySend(c, message) {
		return notification.ErrChannelFull
	}
	return nil
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *notification.SSEClient, msg *notification.SSEMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}

// Publisher fans notifications out to every connected operator stream.
type Publisher struct {
	hub notification.SSEHub
}

func NewPublisher(hub notification.SSEHub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) Channel() notification.Channel {
	return notification.ChannelSSE
}

// Publish never fails for lack of listeners; an operator who is not
// connected simply misses the event.
func (p *Publisher) Publish(ctx context.Context, n *notification.Notification, event notification.Event) error {
	data, err := json.Marshal(struct {
		NotificationID string             `json:"notificationId"`
		DedupeKey      string             `json:"dedupeKey"`
		Event          notification.Event `json:"event"`
	}{
		NotificationID: n.NotificationID.String(),
		DedupeKey:      n.DedupeKey,
		Event:          event,
	})
	if err != nil {
		return fmt.Errorf("failed to encode sse payload: %w", err)
	}
	p.hub.BroadcastToAll(notification.NewSSEMessage(string(n.Kind), data))
	return nil
}
