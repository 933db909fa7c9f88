// Package transport owns the one persistent bidirectional connection a
// session holds to the game server. It carries no game semantics: connect
// and disconnect status changes are its only externally observable signal.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/wordrush/wordrush-go/internal/protocol"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("transport closed")
)

// Status is a connection lifecycle signal.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Config holds connection tuning for the websocket client.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
	ReconnectBase    time.Duration
	ReconnectCap     time.Duration
	Header           http.Header
}

// DefaultConfig returns the default websocket configuration for a server URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   32 * 1024,
		ReconnectBase:    500 * time.Millisecond,
		ReconnectCap:     30 * time.Second,
	}
}

// Client maintains exactly one logical connection. A transport-level drop
// triggers automatic re-dialing with exponential backoff; application state
// is never replayed here - resumption is the session's concern, signaled
// through StatusChanges.
type Client struct {
	config Config
	clock  clockwork.Clock
	dialer *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	sendCh    chan []byte
	connected bool
	closed    bool
	cancel    context.CancelFunc

	events   chan protocol.Envelope
	statusCh chan Status
}

// New creates a client. A nil clock means the real clock; tests inject a
// fake one to drive reconnect backoff.
func New(config Config, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		config: config,
		clock:  clock,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
		},
		events:   make(chan protocol.Envelope, 64),
		statusCh: make(chan Status, 8),
	}
}

// Connect establishes the channel. Idempotent: while connected or already
// reconnecting it does nothing. The first dial is synchronous so callers get
// immediate feedback; later drops re-dial in the background.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.conn != nil || c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	conn, err := c.dial(runCtx)
	if err != nil {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
		return err
	}

	c.adopt(conn)
	go c.run(runCtx, conn)
	return nil
}

// IsConnected reports whether the channel is currently up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Events delivers every decoded inbound envelope in receipt order.
func (c *Client) Events() <-chan protocol.Envelope {
	return c.events
}

// StatusChanges delivers connect/disconnect transitions.
func (c *Client) StatusChanges() <-chan Status {
	return c.statusCh
}

// Send builds an envelope and queues it for delivery. When the channel is
// down it logs and no-ops; callers that need the result must check
// IsConnected or wait for the server's broadcast.
func (c *Client) Send(eventType protocol.EventType, payload any) error {
	env, err := protocol.NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		log.Warn().Str("event_type", string(eventType)).Msg("send dropped: not connected")
		return ErrNotConnected
	}
	sendCh := c.sendCh
	c.mu.Unlock()

	select {
	case sendCh <- data:
		return nil
	default:
		log.Warn().Str("event_type", string(eventType)).Msg("send dropped: outbound buffer full")
		return ErrNotConnected
	}
}

// Close tears the connection down for good. No reconnection follows.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		conn.Close()
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.config.URL, c.config.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// adopt installs a fresh connection and flips status to connected.
func (c *Client) adopt(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.sendCh = make(chan []byte, 64)
	c.connected = true
	c.mu.Unlock()

	c.emitStatus(StatusConnected)
	log.Info().Str("url", c.config.URL).Msg("websocket connection established")
}

// run drives one connection at a time: pumps until the connection drops,
// then re-dials with backoff until Close or context cancellation.
func (c *Client) run(ctx context.Context, conn *websocket.Conn) {
	for {
		c.pump(ctx, conn)

		c.mu.Lock()
		closed := c.closed
		c.conn = nil
		c.connected = false
		c.mu.Unlock()

		c.emitStatus(StatusDisconnected)
		if closed || ctx.Err() != nil {
			return
		}

		next, err := c.redial(ctx)
		if err != nil {
			return
		}
		conn = next
		c.adopt(conn)
	}
}

// redial retries with exponential backoff (jittered, capped) until a dial
// succeeds or the transport shuts down.
func (c *Client) redial(ctx context.Context) (*websocket.Conn, error) {
	backoff := c.config.ReconnectBase
	for attempt := 1; ; attempt++ {
		wait := backoff + time.Duration(rand.Int63n(int64(backoff)/2+1))
		log.Info().Int("attempt", attempt).Dur("wait", wait).Msg("reconnecting")

		timer := c.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			stopAndDrainTimer(timer)
			return nil, ctx.Err()
		case <-timer.Chan():
		}

		conn, err := c.dial(ctx)
		if err == nil {
			return conn, nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("reconnect dial failed")

		backoff *= 2
		if backoff > c.config.ReconnectCap {
			backoff = c.config.ReconnectCap
		}
	}
}

// pump runs the write loop in the background and reads until the connection
// errors. Returns once the connection is unusable.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	sendCh := c.sendCh
	c.mu.Unlock()

	writeDone := make(chan struct{})
	go c.writePump(conn, sendCh, writeDone)
	defer func() {
		close(writeDone)
		conn.Close()
	}()

	conn.SetReadLimit(c.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Msg("dropping malformed server frame")
			continue
		}

		select {
		case c.events <- env:
		case <-ctx.Done():
			return
		}
	}
}

// writePump serializes all writes on one goroutine and keeps the connection
// alive with pings, mirroring the read deadline contract.
func (c *Client) writePump(conn *websocket.Conn, sendCh chan []byte, done chan struct{}) {
	ticker := c.clock.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case data := <-sendCh:
			conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Msg("websocket write failed")
				conn.Close()
				return
			}
		case <-ticker.Chan():
			conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Msg("ping failed")
				conn.Close()
				return
			}
		}
	}
}

func (c *Client) emitStatus(s Status) {
	select {
	case c.statusCh <- s:
	default:
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel, per the
// time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
