package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushServer upgrades every connection, writes frames, then holds the
// connection open until the client goes away.
func pushServer(t *testing.T, frames []string, onConnect func(r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if onConnect != nil {
			onConnect(r)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for feed event")
		return nil
	}
}

// nextData skips status changes.
func nextData(t *testing.T, events <-chan Event) Event {
	t.Helper()
	for {
		ev := nextEvent(t, events)
		if _, ok := ev.(StatusChange); !ok {
			return ev
		}
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:5000", "ws://localhost:5000/ws", false},
		{"https://desk.example.com/", "wss://desk.example.com/ws", false},
		{"https://desk.example.com/api", "wss://desk.example.com/api/ws", false},
		{"ws://localhost:5000", "ws://localhost:5000/ws", false},
		{"ftp://localhost", "", true},
		{"http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WebsocketURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_DeliversEventsAndSkipsMalformed(t *testing.T) {
	var auth atomic.Value
	server := pushServer(t, []string{
		`not json`,
		`{"event":"heartbeat","data":{}}`,
		`{"event":"updates","data":{"stocks":{"AAPL":{"price":150.5,"change":-1.2}}}}`,
		`{"event":"portfolio_update","data":{"email":"me@x.com","portfolio":{"balance":5,"holdings":[]}}}`,
	}, func(r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
	})

	client, err := NewClient(server.URL, "me@x.com", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	assert.Equal(t, StatusChange{Status: StatusConnecting}, nextEvent(t, client.Events()))
	assert.Equal(t, StatusChange{Status: StatusLive}, nextEvent(t, client.Events()))

	up, ok := nextEvent(t, client.Events()).(Updates)
	require.True(t, ok)
	assert.Contains(t, up.Stocks, "AAPL")

	pu, ok := nextEvent(t, client.Events()).(PortfolioUpdate)
	require.True(t, ok)
	assert.Equal(t, "me@x.com", pu.Email)

	assert.Equal(t, "Bearer me@x.com", auth.Load())
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	got := make(chan bool, 1)
	server := pushServer(t, nil, func(r *http.Request) {
		_, has := r.Header["Authorization"]
		got <- has
	})

	client, err := NewClient(server.URL, "", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case has := <-got:
		assert.False(t, has)
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw a connection")
	}
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	var connections atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		frame := `{"event":"updates","data":{"stocks":{"A":{"price":1,"change":0}}}}`
		if n > 1 {
			frame = `{"event":"updates","data":{"stocks":{"B":{"price":2,"change":0}}}}`
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		if n == 1 {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "", zap.NewNop())
	require.NoError(t, err)
	client.MinBackoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	first := nextData(t, client.Events()).(Updates)
	assert.Contains(t, first.Stocks, "A")

	var sawReconnecting bool
	for {
		ev := nextEvent(t, client.Events())
		if sc, ok := ev.(StatusChange); ok {
			if sc.Status == StatusReconnecting {
				sawReconnecting = true
				assert.Error(t, sc.Err)
			}
			continue
		}
		second := ev.(Updates)
		assert.Contains(t, second.Stocks, "B")
		break
	}
	assert.True(t, sawReconnecting)
	assert.GreaterOrEqual(t, connections.Load(), int32(2))
}

func TestClient_RunStopsOnCancel(t *testing.T) {
	server := pushServer(t, nil, nil)

	client, err := NewClient(server.URL, "", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		client.Run(ctx)
		close(finished)
	}()

	assert.Equal(t, StatusChange{Status: StatusConnecting}, nextEvent(t, client.Events()))
	assert.Equal(t, StatusChange{Status: StatusLive}, nextEvent(t, client.Events()))
	cancel()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// Drain: the channel must end closed.
	for range client.Events() {
	}
}

func TestClient_BackoffWhenServerDown(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", "", zap.NewNop())
	require.NoError(t, err)
	client.MinBackoff = 5 * time.Millisecond
	client.MaxBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	assert.Equal(t, StatusChange{Status: StatusConnecting}, nextEvent(t, client.Events()))
	for i := 0; i < 3; i++ {
		sc := nextEvent(t, client.Events()).(StatusChange)
		if sc.Status == StatusReconnecting && sc.Err != nil {
			continue
		}
		assert.Equal(t, StatusReconnecting, sc.Status)
	}
}
