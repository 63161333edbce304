// Package live pushes standings updates to browsers over websockets.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/swiss/internal/domain/types"
	"github.com/okian/swiss/pkg/logger"
	"github.com/okian/swiss/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// InitialFunc builds the first message a client receives after connecting.
type InitialFunc func(ctx context.Context) (types.Update, error)

// Hub tracks connected clients and fans updates out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	upgrader websocket.Upgrader
	initial  InitialFunc
	logger   logger.Logger
}

// NewHub creates a hub with no clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.Get().Named("live"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish sends u to every connected client. Clients whose buffer is full are
// dropped rather than slowing the others down.
func (h *Hub) Publish(ctx context.Context, u types.Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn(ctx, "dropping slow client", logger.String("remote", c.remote))
			h.removeLocked(c)
		}
	}
	metrics.RecordLiveBroadcast()
	return nil
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ServeHTTP upgrades the request and streams updates until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), remote: r.RemoteAddr}
	if h.initial != nil {
		if u, err := h.initial(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "initial standings unavailable", logger.Error(err))
		} else if payload, err := json.Marshal(u); err == nil {
			c.send <- payload
		}
	}
	if !h.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.UpdateLiveClients(len(h.clients))
	h.logger.Debug(context.Background(), "client connected",
		logger.String("remote", c.remote), logger.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.UpdateLiveClients(len(h.clients))
}
