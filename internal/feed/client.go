// Package feed maintains the push connection to the trading server and turns
// its frames into typed events.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Path is the push endpoint on the trading server.
	Path = "/ws"

	maxMessageSize = 512 * 1024
	eventBuffer    = 64
)

// Client reads the push channel and reconnects with capped exponential
// backoff until its context is cancelled.
type Client struct {
	URL    string
	Token  string
	Dialer *websocket.Dialer
	Logger *zap.Logger

	MinBackoff time.Duration
	MaxBackoff time.Duration

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration

	events chan Event
}

// NewClient builds a client for the server at serverURL (http, https, ws or
// wss). An empty token sends no Authorization header.
func NewClient(serverURL, token string, logger *zap.Logger) (*Client, error) {
	wsURL, err := WebsocketURL(serverURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		URL:        wsURL,
		Token:      token,
		Dialer:     websocket.DefaultDialer,
		Logger:     logger,
		MinBackoff: time.Second,
		MaxBackoff: 30 * time.Second,
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
		events:     make(chan Event, eventBuffer),
	}, nil
}

// WebsocketURL maps a server base URL to its push endpoint.
func WebsocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server url %q: unsupported scheme", serverURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", serverURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + Path
	return u.String(), nil
}

// Events returns the channel decoded events are delivered on. It is closed
// when Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Run connects and reads until ctx is cancelled. It never gives up on a
// failing server; each failure is reported as StatusReconnecting.
func (c *Client) Run(ctx context.Context) {
	defer close(c.events)

	backoff := c.MinBackoff
	status := StatusConnecting
	for {
		c.emit(ctx, StatusChange{Status: status})

		conn, err := c.dial(ctx)
		if err == nil {
			backoff = c.MinBackoff
			c.Logger.Info("feed connected", zap.String("url", c.URL))
			c.emit(ctx, StatusChange{Status: StatusLive})
			err = c.readLoop(ctx, conn)
		}

		if ctx.Err() != nil {
			c.Logger.Info("feed closed")
			// Best effort: consumers may already be gone.
			select {
			case c.events <- StatusChange{Status: StatusClosed}:
			default:
			}
			return
		}

		c.Logger.Warn("feed disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		c.emit(ctx, StatusChange{Status: StatusReconnecting, Err: err})
		status = StatusReconnecting

		if !sleep(ctx, backoff) {
			continue
		}
		backoff = min(backoff*2, c.MaxBackoff)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}
	conn, resp, err := c.Dialer.DialContext(ctx, c.URL, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.URL, err)
	}
	return conn, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(c.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	go c.keepalive(ctx, conn, done)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("server closed the connection")
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.pongWait))

		ev, err := Decode(frame)
		if err != nil {
			c.Logger.Warn("skipping feed message", zap.Error(err), zap.Int("bytes", len(frame)))
			continue
		}
		c.Logger.Debug("feed message", zap.String("type", fmt.Sprintf("%T", ev)))
		if !c.emit(ctx, ev) {
			return ctx.Err()
		}
	}
}

// keepalive pings the server and closes conn once ctx is cancelled, which
// unblocks the reader.
func (c *Client) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait)); err != nil {
				c.Logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) emit(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
