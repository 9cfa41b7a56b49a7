// Package hub broadcasts engine events to websocket subscribers.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dougsko/rigd/pkg/engine"
	"github.com/dougsko/rigd/pkg/logging"
)

const (
	KeepaliveInterval = 4 * time.Minute
	SlowClientTimeout = 3 * time.Second

	component = "hub"
	backlog   = 256
)

// Message is the wire form of one engine event
type Message struct {
	Type string       `json:"type"`
	Data engine.Event `json:"data"`
}

type client struct {
	conn *websocket.Conn
	out  chan Message
}

// Hub fans engine events out to every connected websocket. It implements
// engine.Sink without ever blocking the publisher.
type Hub struct {
	onSubscribe func()
	in          chan Message

	mu   sync.Mutex
	pool map[*client]struct{}
}

// New returns a hub. onSubscribe, if non-nil, runs each time a client
// joins; rigd uses it to ask the engine for a full state resend.
func New(onSubscribe func()) *Hub {
	return &Hub{
		onSubscribe: onSubscribe,
		in:          make(chan Message, backlog),
		pool:        map[*client]struct{}{},
	}
}

// Publish queues ev for broadcast. Events are dropped when the backlog
// is full.
func (h *Hub) Publish(ev engine.Event) {
	select {
	case h.in <- Message{Type: ev.EventType(), Data: ev}:
	default:
		logging.Warnf(component, "backlog full, dropping %s event", ev.EventType())
	}
}

// Run broadcasts queued events until ctx is done, then closes all clients.
func (h *Hub) Run(ctx context.Context) error {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-h.in:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.pool {
		select {
		case c.out <- msg:
		case <-time.After(SlowClientTimeout):
			logging.Infof(component, "closing unresponsive websocket %s", c.conn.RemoteAddr())
			c.conn.Close()
			delete(h.pool, c)
		}
	}
}

// Close closes all active connections. Handle calls already running
// return once their connection fails.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.pool {
		if err := c.conn.Close(); err != nil {
			logging.Debugf(component, "closing %s: %v", c.conn.RemoteAddr(), err)
		}
		delete(h.pool, c)
	}
	return nil
}

func (h *Hub) NumClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pool)
}

// Handle adds a websocket to the hub and blocks until the client stops
// responding or goes away.
func (h *Hub) Handle(conn *websocket.Conn) {
	addr := conn.RemoteAddr()
	logging.Debugf(component, "ws[%s] subscribed", addr)
	c := &client{conn: conn, out: make(chan Message, 16)}

	h.mu.Lock()
	h.pool[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		conn.Close()
		h.mu.Lock()
		delete(h.pool, c)
		h.mu.Unlock()
		logging.Debugf(component, "ws[%s] unsubscribed", addr)
	}()

	if h.onSubscribe != nil {
		h.onSubscribe()
	}

	quit := readLoop(conn)
	ticker := time.NewTicker(KeepaliveInterval)
	defer ticker.Stop()
	for {
		var err error
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err = conn.WriteJSON(struct {
				Type string `json:"type"`
			}{"ping"})
		case msg := <-c.out:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err = conn.WriteJSON(msg)
		case <-quit:
			return
		}
		if err != nil {
			logging.Debugf(component, "ws[%s] write error: %v", addr, err)
			return
		}
	}
}

// readLoop discards inbound frames; the returned channel closes when the
// connection fails.
func readLoop(conn *websocket.Conn) <-chan struct{} {
	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			conn.SetReadDeadline(time.Now().Add(KeepaliveInterval + 10*time.Second))
			var v map[string]json.RawMessage
			if err := conn.ReadJSON(&v); err != nil {
				logging.Debugf(component, "ws[%s] read error: %v", conn.RemoteAddr(), err)
				return
			}
		}
	}()
	return quit
}
