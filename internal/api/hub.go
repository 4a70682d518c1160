package api

import (
	"context"
	"log/slog"
	"sync"

	"rotorgo/pkg/core"
)

// Hub fans frames out to WebSocket clients and routes their commands to the controller.
type Hub struct {
	ctrl Commander

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(ctrl Commander) *Hub {
	return &Hub{
		ctrl:       ctrl,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Run manages client membership and broadcasting until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			slog.Info("WebSocket hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			slog.Info("WebSocket client connected", "id", c.id, "remote", c.remote, "clients", n)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for c := range h.clients {
				if !c.enqueue(msg) {
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			// A client that cannot keep up with the frame rate is dropped
			for _, c := range slow {
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
		slog.Info("WebSocket client disconnected", "id", c.id, "clients", len(h.clients))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// BroadcastFrame implements core.FrameSink. Frames are dropped rather than
// queued when the hub is behind.
func (h *Hub) BroadcastFrame(f *core.Frame) {
	if h.ClientCount() == 0 {
		return
	}
	msg, err := encodeMessage(MsgFrame, "", f)
	if err != nil {
		slog.Error("Failed to encode frame", "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
