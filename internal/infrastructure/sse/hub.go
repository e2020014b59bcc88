package sse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
)

// Hub manages SSE stream clients. Clients subscribe scoped to one tender;
// sends are non-blocking and drop frames for clients with a full buffer
// (reconnecting clients re-fetch history).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*dispute.StreamClient
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*dispute.StreamClient),
	}
}

func (h *Hub) Register(client *dispute.StreamClient) {
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

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastToTender delivers a frame to every subscriber of the tender.
func (h *Hub) BroadcastToTender(tenderID uuid.UUID, message *dispute.StreamMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.TenderID == tenderID {
			trySend(c, message)
		}
	}
}

// BroadcastToUser delivers a frame to every connection of one user.
func (h *Hub) BroadcastToUser(userID string, message *dispute.StreamMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.UserID != nil && *c.UserID == userID {
			trySend(c, message)
		}
	}
}

func (h *Hub) SendToClient(clientID string, message *dispute.StreamMessage) error {
	h.mu.RLock()
	c := h.clients[clientID]
	h.mu.RUnlock()
	if c == nil {
		return dispute.ErrClientNotFound
	}
	if !trySend(c, message) {
		return dispute.ErrChannelFull
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

func trySend(c *dispute.StreamClient, msg *dispute.StreamMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
