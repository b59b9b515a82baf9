package websocket

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	gorillaws "github.com/gorilla/websocket"

	apperrors "chatlink/pkg/errors"
	"chatlink/pkg/logger"
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
)

type EventHandler func(*Event)

// Client owns the single live-channel connection for one authenticated
// user. It dials with the userId as connection identity, delivers
// inbound events to the registered handler, and on transport loss keeps
// reconnecting with capped exponential backoff until Disconnect is
// called. Transport errors are logged, never surfaced as fatal.
type Client struct {
	wsURL  string
	userID string

	mu      sync.Mutex
	wsMu    sync.Mutex // serializes writes on the gorilla conn
	conn    *gorillaws.Conn
	status  Status
	started bool
	done    chan struct{}

	onEvent  EventHandler
	onStatus func(Status)
	onReady  []func()

	newBackOff func() backoff.BackOff
}

func NewClient(wsURL, userID string) *Client {
	return &Client{
		wsURL:      wsURL,
		userID:     userID,
		status:     StatusDisconnected,
		done:       make(chan struct{}),
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry until Disconnect
	return b
}

// SetEventHandler registers the handler for inbound events. Must be set
// before Connect.
func (c *Client) SetEventHandler(h EventHandler) {
	c.onEvent = h
}

// SetStatusHandler registers an optional status observer for UIs that
// want to render connected/reconnecting.
func (c *Client) SetStatusHandler(h func(Status)) {
	c.onStatus = h
}

// OnReady registers a hook invoked after every successful connect,
// including reconnects. The room multiplexer uses it to replay joins.
func (c *Client) OnReady(f func()) {
	c.onReady = append(c.onReady, f)
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect starts the connection loop and returns without waiting for
// the handshake. Calling it twice is an error.
func (c *Client) Connect() error {
	if c.userID == "" {
		return apperrors.BadRequest("user id is required to connect", nil)
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return apperrors.BadRequest("connection already started", nil)
	}
	c.started = true
	c.status = StatusConnecting
	c.mu.Unlock()

	go c.run()
	return nil
}

// Disconnect tears the transport down and stops the reconnect loop.
// Idempotent if already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return
	default:
	}
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	if conn != nil {
		c.wsMu.Lock()
		conn.WriteControl(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.wsMu.Unlock()
		conn.Close()
	}
	c.notifyStatus(StatusDisconnected)
}

// Send writes an event to the live channel. Fire-and-forget for the
// caller's purposes: an Unavailable error means the channel is down,
// which callers log and move on from, since the durable path does not
// depend on it.
func (c *Client) Send(evt *Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return apperrors.Internal("failed to encode event", err)
	}

	c.mu.Lock()
	conn := c.conn
	status := c.status
	c.mu.Unlock()

	if conn == nil || status != StatusConnected {
		return apperrors.Unavailable("live channel is not connected", nil)
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(gorillaws.TextMessage, data); err != nil {
		return apperrors.Unavailable("live channel write failed", err)
	}
	return nil
}

func (c *Client) run() {
	bo := c.newBackOff()

	for {
		conn, err := c.dial()
		if err != nil {
			logger.Warn("ws: dial failed for user %s: %v", c.userID, err)
			if !c.waitRetry(bo) {
				return
			}
			continue
		}

		c.mu.Lock()
		select {
		case <-c.done:
			c.mu.Unlock()
			conn.Close()
			return
		default:
		}
		c.conn = conn
		c.status = StatusConnected
		c.mu.Unlock()

		bo.Reset()
		logger.Info("ws: user %s connected", c.userID)
		c.notifyStatus(StatusConnected)
		for _, f := range c.onReady {
			f()
		}

		c.readLoop(conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()

		select {
		case <-c.done:
			return
		default:
		}

		c.mu.Lock()
		c.status = StatusReconnecting
		c.mu.Unlock()
		logger.Warn("ws: user %s lost connection, reconnecting", c.userID)
		c.notifyStatus(StatusReconnecting)

		if !c.waitRetry(bo) {
			return
		}
	}
}

func (c *Client) dial() (*gorillaws.Conn, error) {
	dialer := gorillaws.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.Dial(c.dialURL(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (c *Client) dialURL() string {
	return c.wsURL + "?userId=" + url.QueryEscape(c.userID)
}

func (c *Client) waitRetry(bo backoff.BackOff) bool {
	d := bo.NextBackOff()
	if d == backoff.Stop {
		d = 30 * time.Second
	}
	select {
	case <-c.done:
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Client) readLoop(conn *gorillaws.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
				logger.Warn("ws: read error for user %s: %v", c.userID, err)
			}
			return
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			logger.Warn("ws: dropping malformed frame for user %s: %v", c.userID, err)
			continue
		}
		if evt.Type == "" {
			logger.Warn("ws: dropping frame without type for user %s", c.userID)
			continue
		}

		if c.onEvent != nil {
			c.onEvent(&evt)
		}
	}
}

func (c *Client) notifyStatus(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}
