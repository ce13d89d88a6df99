package mockapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

// frame is the push-channel envelope, matching the client transport.
type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	AckID   int64           `json:"ackId,omitempty"`
}

// Hub fans push events out to connected websocket clients and handles
// their subscription emits.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn   *websocket.Conn
	send   chan frame
	mu     sync.Mutex
	subs   map[domain.EndpointID]struct{}
	all    bool
	closed bool
}

// trySend drops the frame when the client is gone or its buffer is full,
// so one slow consumer never blocks the broadcaster.
func (c *hubClient) trySend(f frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- f:
	default:
	}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*hubClient]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws_upgrade_error", zap.Error(err))
		return
	}

	c := &hubClient{
		conn: conn,
		send: make(chan frame, 64),
		subs: make(map[domain.EndpointID]struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("ws_client_connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	close(c.send)
	conn.Close()
	h.log.Info("ws_client_disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (h *Hub) writeLoop(c *hubClient) {
	for f := range c.send {
		if err := c.conn.WriteJSON(f); err != nil {
			return
		}
	}
}

func (h *Hub) readLoop(c *hubClient) {
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			return
		}

		switch f.Event {
		case domain.EvSubscribeEndpoint:
			var p domain.SubscribePayload
			if json.Unmarshal(f.Payload, &p) == nil {
				c.mu.Lock()
				c.subs[p.EndpointID] = struct{}{}
				c.mu.Unlock()
			}
		case domain.EvUnsubscribeEndpoint:
			var p domain.SubscribePayload
			if json.Unmarshal(f.Payload, &p) == nil {
				c.mu.Lock()
				delete(c.subs, p.EndpointID)
				c.mu.Unlock()
			}
		case domain.EvSubscribeAll:
			c.mu.Lock()
			c.all = true
			c.mu.Unlock()
		default:
			h.log.Warn("ws_unknown_client_event", zap.String("event", f.Event))
		}

		if f.AckID != 0 {
			ok, _ := json.Marshal(map[string]bool{"ok": true})
			c.trySend(frame{Event: "ack", AckID: f.AckID, Payload: ok})
		}
	}
}

// Broadcast sends an event to every interested client. endpointID scopes
// the event; pass "" for unscoped events. A client that never subscribed
// to anything receives everything, so casual consumers just work.
func (h *Hub) Broadcast(event string, payload any, endpointID domain.EndpointID) {
	b, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("broadcast_marshal_error", zap.String("event", event), zap.Error(err))
		return
	}
	f := frame{Event: event, Payload: b}

	h.mu.Lock()
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if endpointID != "" && !c.wants(endpointID) {
			continue
		}
		c.trySend(f)
	}
}

func (c *hubClient) wants(id domain.EndpointID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.all || len(c.subs) == 0 {
		return true
	}
	_, ok := c.subs[id]
	return ok
}
