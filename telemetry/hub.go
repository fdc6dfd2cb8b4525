// Package telemetry streams render models to websocket clients and accepts
// remote select/quit commands. Publishing never blocks the tracking loop.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soocke/turret-tracker/domain/tracking"
)

const (
	clientSendBuffer = 16
	writeWait        = 5 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
)

// Hub fans render models out to connected clients.
type Hub struct {
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	clientsMu sync.RWMutex
	clients   map[*client]struct{}
	commands  chan tracking.Command
	sequence  atomic.Uint64
	dropped   atomic.Uint64
	latest    atomic.Pointer[[]byte]
	server    *http.Server
	listener  net.Listener
	closeOnce sync.Once
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewHub returns a hub with no clients.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		// Remote commands are rare; a short queue is enough.
		commands: make(chan tracking.Command, 8),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler serves /ws and /status.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/status", h.handleStatus)
	return mux
}

// Start listens on addr in the background.
func (h *Hub) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.listener = ln
	h.server = &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && h.logger != nil {
			h.logger.Error("telemetry server stopped", "error", err)
		}
	}()
	if h.logger != nil {
		h.logger.Info("telemetry listening", "addr", ln.Addr().String())
	}
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (h *Hub) Addr() string {
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Present publishes m to every client. Clients whose buffer is full miss it.
func (h *Hub) Present(_ tracking.Frame, m tracking.RenderModel) {
	seq := h.sequence.Add(1)
	msg, err := NewMessage(TypeRender, RenderPayload{Sequence: seq, Timestamp: time.Now().UnixMilli(), Model: m})
	if err != nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.latest.Store(&data)
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for c := range h.clients {
		if !c.trySend(data) {
			h.dropped.Add(1)
		}
	}
}

// Poll returns a queued remote command without waiting.
func (h *Hub) Poll() tracking.Command {
	select {
	case c := <-h.commands:
		return c
	default:
		return tracking.CommandNone
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many per-client messages were skipped.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close disconnects every client and stops the server.
func (h *Hub) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.clientsMu.Lock()
		for c := range h.clients {
			c.close()
			delete(h.clients, c)
		}
		h.clientsMu.Unlock()
		if h.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err = h.server.Shutdown(ctx)
		}
	})
	return err
}

func (h *Hub) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if p := h.latest.Load(); p != nil {
		_, _ = w.Write(*p)
		return
	}
	_, _ = w.Write([]byte(`{"type":"render","payload":null}`))
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
		}
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()
	if p := h.latest.Load(); p != nil {
		c.trySend(*p)
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *client) {
	h.clientsMu.Lock()
	delete(h.clients, c)
	h.clientsMu.Unlock()
	c.close()
}

func (h *Hub) enqueue(cmd tracking.Command) bool {
	select {
	case h.commands <- cmd:
		return true
	default:
		return false
	}
}

func (c *client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

func (c *client) sendMessage(msgType string, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer c.hub.remove(c)
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && c.hub.logger != nil {
				c.hub.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendMessage(TypeError, ErrorPayload{Code: ErrInvalidMessage, Message: "failed to parse message"})
		return
	}
	switch msg.Type {
	case TypePing:
		var p PingPayload
		if err := msg.ParsePayload(&p); err != nil {
			return
		}
		c.sendMessage(TypePong, PongPayload{ClientTimestamp: p.Timestamp, ServerTimestamp: time.Now().UnixMilli()})
	case TypeCommand:
		var p CommandPayload
		if err := msg.ParsePayload(&p); err != nil {
			c.sendMessage(TypeError, ErrorPayload{Code: ErrInvalidMessage, Message: "bad command payload"})
			return
		}
		cmd, ok := ParseCommand(p.Command)
		if !ok {
			c.sendMessage(TypeError, ErrorPayload{Code: ErrUnknownCommand, Message: p.Command})
			return
		}
		if !c.hub.enqueue(cmd) && c.hub.logger != nil {
			c.hub.logger.Warn("remote command dropped", "command", p.Command)
		}
	default:
		c.sendMessage(TypeError, ErrorPayload{Code: ErrInvalidMessage, Message: "unknown type " + msg.Type})
	}
}
