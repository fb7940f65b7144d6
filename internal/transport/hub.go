package transport

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"coldchain_logger/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Envelope is what subscribers receive.
type Envelope struct {
	Type string `json:"type"` // "event"
	Data any    `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	ping chan struct{}
}

// Hub fans published events out to websocket subscribers. A subscriber that
// cannot keep up is dropped rather than slowing the publisher.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	pings      chan struct{}
	done       chan struct{}
	clients    map[*client]struct{}
	count      atomic.Int64
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		pings:      make(chan struct{}, 1),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
		log:        log,
	}
}

// Run owns the subscriber set until ctx is cancelled. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.log.Infow("ws_subscriber_added", "remote", c.conn.RemoteAddr().String(), "subscribers", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Infow("ws_subscriber_removed", "remote", c.conn.RemoteAddr().String(), "subscribers", len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warnw("ws_subscriber_slow", "remote", c.conn.RemoteAddr().String())
					h.drop(c)
				}
			}
		case <-h.pings:
			for c := range h.clients {
				select {
				case c.ping <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// Subscribers returns the number of registered connections.
func (h *Hub) Subscribers() int { return int(h.count.Load()) }

// Broadcast queues v for every subscriber. It never blocks; when the hub is
// backed up the message is dropped.
func (h *Hub) Broadcast(kind string, v any) {
	msg, err := json.Marshal(Envelope{Type: kind, Data: v})
	if err != nil {
		h.log.Errorw("ws_marshal_failed", "type", kind, "err", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warnw("ws_broadcast_dropped", "type", kind)
	}
}

// Ping asks every subscriber's writer to send a control ping now.
func (h *Hub) Ping() {
	select {
	case h.pings <- struct{}{}:
	default:
	}
}

// Serve registers an upgraded connection and pumps it until either side
// closes. It blocks, so handlers call it last.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), ping: make(chan struct{}, 1)}
	select {
	case h.register <- c:
	case <-ctx.Done():
		_ = conn.Close()
		return
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.readPump(c)
	h.writePump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Infow("ws_read_failed", "err", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
		case <-c.ping:
			if err := h.writePing(c); err != nil {
				return
			}
		case <-ticker.C:
			if err := h.writePing(c); err != nil {
				return
			}
		}
	}
}

func (h *Hub) writePing(c *client) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		h.log.Infow("ws_ping_failed", "err", err)
		return err
	}
	return nil
}
