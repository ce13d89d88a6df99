package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Lifecycle events dispatched through the same registry as server events.
const (
	EventConnect          = "connect"
	EventDisconnect       = "disconnect"
	EventConnectError     = "connect_error"
	EventReconnectAttempt = "reconnect_attempt"
	EventReconnectFailed  = "reconnect_failed"
)

// Handler receives the raw payload of a named event.
type Handler func(payload json.RawMessage)

// AckHandler receives the server's reply to an acknowledged emit.
type AckHandler func(payload json.RawMessage)

// frame is the wire envelope, both directions.
type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	AckID   int64           `json:"ackId,omitempty"`
}

type Options struct {
	URL               string
	ReconnectAttempts int           // tries before reconnect_failed
	ReconnectDelay    time.Duration // first retry delay
	ReconnectDelayMax time.Duration // backoff cap
	Dialer            *websocket.Dialer
}

// Client owns at most one live connection to the backend push channel.
// Connection failures never surface as errors from its methods; they are
// observed through lifecycle events.
type Client struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla allows one concurrent writer
	running bool
	gen     int
	cancel  context.CancelFunc

	hmu      sync.Mutex
	handlers map[string][]*registration

	ackMu  sync.Mutex
	ackSeq int64
	acks   map[int64]AckHandler
}

type registration struct {
	fn   Handler
	once bool
}

func New(opts Options, log *zap.Logger) *Client {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.ReconnectDelayMax < opts.ReconnectDelay {
		opts.ReconnectDelayMax = 5 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Client{
		opts:     opts,
		log:      log,
		handlers: make(map[string][]*registration),
		acks:     make(map[int64]AckHandler),
	}
}

// Connect starts the connection loop. Idempotent: a second call while a
// connection or reconnect loop is live does nothing.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	gen := c.gen
	c.mu.Unlock()

	go c.loop(ctx, gen)
}

// Disconnect closes the active connection and stops any reconnect loop.
// No-op when nothing is running.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = c.conn.Close()
		c.conn = nil
	}
	c.running = false
	c.mu.Unlock()
}

// IsConnected reports whether a live connection exists right now.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Emit sends a named event. Dropped with a warning when disconnected;
// never queued, never retried.
func (c *Client) Emit(event string, payload any) {
	c.emit(event, payload, 0)
}

// EmitWithAck sends a named event and registers fn for the server's ack.
// Like Emit, it is dropped when disconnected.
func (c *Client) EmitWithAck(event string, payload any, fn AckHandler) {
	c.ackMu.Lock()
	c.ackSeq++
	id := c.ackSeq
	c.acks[id] = fn
	c.ackMu.Unlock()
	if !c.emit(event, payload, id) {
		c.ackMu.Lock()
		delete(c.acks, id)
		c.ackMu.Unlock()
	}
}

func (c *Client) emit(event string, payload any, ackID int64) bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.log.Warn("emit_dropped", zap.String("event", event))
		return false
	}

	f := frame{Event: event, AckID: ackID}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			c.log.Warn("emit_marshal_error", zap.String("event", event), zap.Error(err))
			return false
		}
		f.Payload = b
	}

	c.writeMu.Lock()
	err := conn.WriteJSON(f)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Warn("emit_write_error", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}

// On registers fn for a named event.
func (c *Client) On(event string, fn Handler) {
	c.hmu.Lock()
	c.handlers[event] = append(c.handlers[event], &registration{fn: fn})
	c.hmu.Unlock()
}

// Once registers fn to fire at most once.
func (c *Client) Once(event string, fn Handler) {
	c.hmu.Lock()
	c.handlers[event] = append(c.handlers[event], &registration{fn: fn, once: true})
	c.hmu.Unlock()
}

// Off removes all handlers for a named event.
func (c *Client) Off(event string) {
	c.hmu.Lock()
	delete(c.handlers, event)
	c.hmu.Unlock()
}

// dispatch runs handlers in registration order on the calling goroutine,
// so delivery order is the read loop's frame order.
func (c *Client) dispatch(event string, payload json.RawMessage) {
	c.hmu.Lock()
	regs := c.handlers[event]
	run := make([]*registration, len(regs))
	copy(run, regs)
	if len(regs) > 0 {
		kept := regs[:0]
		for _, r := range regs {
			if !r.once {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(c.handlers, event)
		} else {
			c.handlers[event] = kept
		}
	}
	c.hmu.Unlock()

	for _, r := range run {
		r.fn(payload)
	}
}

func (c *Client) loop(ctx context.Context, gen int) {
	attempt := 0
	delay := c.opts.ReconnectDelay
	first := true

	for {
		if !first {
			attempt++
			if attempt > c.opts.ReconnectAttempts {
				c.log.Warn("ws_reconnect_failed", zap.Int("attempts", c.opts.ReconnectAttempts))
				c.dispatch(EventReconnectFailed, nil)
				c.mu.Lock()
				if gen == c.gen {
					c.running = false
				}
				c.mu.Unlock()
				return
			}
			c.dispatch(EventReconnectAttempt, attemptPayload(attempt))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.opts.ReconnectDelayMax {
				delay = c.opts.ReconnectDelayMax
			}
		}
		first = false

		conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("ws_connect_error", zap.String("url", c.opts.URL), zap.Error(err))
			c.dispatch(EventConnectError, errorPayload(err))
			continue
		}

		c.mu.Lock()
		if ctx.Err() != nil || gen != c.gen {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		attempt = 0
		delay = c.opts.ReconnectDelay
		c.log.Info("ws_connected", zap.String("url", c.opts.URL))
		c.dispatch(EventConnect, nil)

		readErr := c.readLoop(conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		stopped := ctx.Err() != nil || gen != c.gen
		c.mu.Unlock()

		c.ackMu.Lock()
		c.acks = make(map[int64]AckHandler)
		c.ackMu.Unlock()

		c.log.Info("ws_disconnected", zap.Error(readErr))
		c.dispatch(EventDisconnect, nil)
		if stopped {
			return
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws_read_error", zap.Error(err))
			}
			return err
		}
		if f.Event == "ack" {
			c.ackMu.Lock()
			fn := c.acks[f.AckID]
			delete(c.acks, f.AckID)
			c.ackMu.Unlock()
			if fn != nil {
				fn(f.Payload)
			}
			continue
		}
		c.dispatch(f.Event, f.Payload)
	}
}

func attemptPayload(n int) json.RawMessage {
	b, _ := json.Marshal(map[string]int{"attempt": n})
	return b
}

func errorPayload(err error) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"message": err.Error()})
	return b
}
