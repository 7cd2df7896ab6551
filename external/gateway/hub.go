package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gatewayport "github.com/voxlane/apptvoice/internal/gateway"
)

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	SentAt  int64  `json:"sent_at"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans typed state events out to every connected browser. The last
// event of each type is replayed to newly connected clients so a
// late-joining browser immediately sees current state.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	lastByType map[string][]byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		lastByType: make(map[string][]byte),
	}
}

func (h *Hub) Broadcast(eventType string, payload any) {
	b, err := json.Marshal(envelope{Type: eventType, Payload: payload, SentAt: time.Now().UnixMilli()})
	if err != nil {
		slog.Error("failed to marshal gateway event", "error", err, "event_type", eventType)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastByType[eventType] = b
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			// Slow consumer; drop the event rather than block the room
			// callback delivering it.
			slog.Warn("gateway client send buffer full; dropping event", "event_type", eventType)
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	replay := make([][]byte, 0, len(h.lastByType))
	for _, b := range h.lastByType {
		replay = append(replay, b)
	}
	h.mu.Unlock()

	for _, b := range replay {
		select {
		case c.send <- b:
		default:
		}
	}
	slog.Info("gateway client connected", "clients", h.clientCount())
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		slog.Info("gateway client disconnected", "clients", h.clientCount())
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ gatewayport.Broadcaster = (*Hub)(nil)
