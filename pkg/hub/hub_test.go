package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/rigd/pkg/engine"
)

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestHubBroadcast(t *testing.T) {
	var subscribed atomic.Int32
	h := New(func() { subscribed.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := newTestServer(t, h)
	a := dial(t, srv)
	b := dial(t, srv)

	require.Eventually(t, func() bool { return h.NumClients() == 2 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return subscribed.Load() == 2 }, time.Second, 10*time.Millisecond)

	h.Publish(engine.FrequencyChanged{ID: engine.VFO1, Freq: 14074000, RITFreq: 14074000, XITFreq: 14074000})
	h.Publish(engine.PTTChanged{ID: engine.VFO1, PTT: true})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		var msg wireMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "frequency", msg.Type)
		var freq engine.FrequencyChanged
		require.NoError(t, json.Unmarshal(msg.Data, &freq))
		assert.Equal(t, 14074000.0, freq.Freq)

		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "ptt", msg.Type)
	}
}

func TestHubClientLeaves(t *testing.T) {
	h := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := newTestServer(t, h)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return h.NumClients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.NumClients() == 0 }, time.Second, 10*time.Millisecond)

	// publishing with nobody listening must not block
	h.Publish(engine.Disconnected{})
}

func TestHubRunClosesClients(t *testing.T) {
	h := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	srv := newTestServer(t, h)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return h.NumClients() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, h.NumClients())
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := New(nil)
	for i := 0; i < backlog+10; i++ {
		h.Publish(engine.KeySpeedChanged{ID: engine.VFO1, WPM: i})
	}
	assert.Len(t, h.in, backlog)
}
