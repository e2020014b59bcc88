package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// watcher wraps a connection with a write lock. gorilla/websocket allows
// at most one concurrent writer per connection, and broadcasts come from
// handler and scheduler goroutines alike.
type watcher struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *watcher) write(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub manages the public websocket watchers of dispute sessions. Citizens
// and unauthenticated observers connect here for the live session view;
// write failures drop the connection.
type Hub struct {
	mu       sync.RWMutex
	watchers map[uuid.UUID]map[*websocket.Conn]*watcher
	logger   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		watchers: make(map[uuid.UUID]map[*websocket.Conn]*watcher),
		logger:   logger.With().Str("component", "ws-hub").Logger(),
	}
}

// Register adds a watcher connection for a tender.
func (h *Hub) Register(tenderID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.watchers[tenderID]
	if !ok {
		conns = make(map[*websocket.Conn]*watcher)
		h.watchers[tenderID] = conns
	}
	conns[conn] = &watcher{conn: conn}
}

// Unregister removes a watcher connection.
func (h *Hub) Unregister(tenderID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.watchers[tenderID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.watchers, tenderID)
		}
	}
}

// WatcherCount returns the number of live watchers for a tender.
func (h *Hub) WatcherCount(tenderID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[tenderID])
}

// BroadcastToTender pushes a JSON payload to every watcher of the tender.
// Safe to call from multiple goroutines; writes to each connection are
// serialized through the watcher's lock.
func (h *Hub) BroadcastToTender(tenderID uuid.UUID, payload []byte) {
	h.mu.RLock()
	targets := make([]*watcher, 0, len(h.watchers[tenderID]))
	for _, w := range h.watchers[tenderID] {
		targets = append(targets, w)
	}
	h.mu.RUnlock()

	for _, w := range targets {
		if err := w.write(payload); err != nil {
			h.logger.Debug().Err(err).Str("tender_id", tenderID.String()).Msg("dropping watcher")
			_ = w.conn.Close()
			h.Unregister(tenderID, w.conn)
		}
	}
}

// Stop closes every watcher connection.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for tenderID, conns := range h.watchers {
		for conn := range conns {
			_ = conn.Close()
		}
		delete(h.watchers, tenderID)
	}
}
