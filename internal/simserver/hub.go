package simserver

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

const (
	maxMessageSize = 512 * 1024
	sendBuffer     = 256
)

// Hub fans messages out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger,
	}
}

// Register adds c and queues initial messages for it before any broadcast can
// reach it.
func (h *Hub) Register(c *Client, initial ...[]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	for _, msg := range initial {
		c.enqueue(msg)
	}
	h.logger.Debug("client registered",
		zap.String("client", c.ID()),
		zap.String("email", c.identity),
		zap.Int("clients", len(h.clients)),
	)
}

// Unregister removes c and closes its send channel. It is safe to call more
// than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Debug("client unregistered", zap.String("client", c.ID()), zap.Int("clients", len(h.clients)))
}

// Broadcast queues msg for every client. Clients with a full buffer miss it.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(msg)
	}
}

// BroadcastEvent encodes an envelope and broadcasts it.
func (h *Hub) BroadcastEvent(event string, data any) error {
	msg, err := encodeEvent(event, data)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", event, err)
	}
	return json.Marshal(tradeapi.Envelope{Event: event, Data: raw})
}

// Client is one websocket connection attached to a Hub.
type Client struct {
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte
	logger   *zap.Logger
	id       string
	identity string

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(conn *websocket.Conn, h *Hub, logger *zap.Logger, identity string) *Client {
	return &Client{
		conn:       conn,
		hub:        h,
		send:       make(chan []byte, sendBuffer),
		logger:     logger,
		id:         conn.RemoteAddr().String(),
		identity:   identity,
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
	}
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) ID() string { return c.id }

// Identity is the viewer the connection was opened for, or "" if anonymous.
func (c *Client) Identity() string { return c.identity }

// enqueue must be called with the hub lock held.
func (c *Client) enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// Drop message if buffer full (Backpressure)
		c.logger.Debug("dropping message for slow client", zap.String("client", c.ID()))
	}
}

// readPump discards client frames; the push channel is one-way. It exists to
// process control frames and notice disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
