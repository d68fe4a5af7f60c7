// Package socket implements the translator channel over a websocket.
//
// The client owns a single connection at a time and redials after a loss.
// Lifecycle signals and incoming animation batches are delivered to
// subscribers in the order they were received.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	session "github.com/koscakluka/signspell/core"
	"github.com/koscakluka/signspell/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotConnected   = errors.New("translator channel is not connected")
	ErrClosed         = errors.New("translator channel is closed")
	ErrAlreadyRunning = errors.New("translator channel is already running")
)

type Client struct {
	url     string
	options ClientOptions

	mu          sync.Mutex
	conn        *websocket.Conn
	connected   bool
	closed      bool
	subscribers map[uint64]session.ChannelHandlers
	order       []uint64
	nextID      uint64

	// deliverMu serializes delivery so handlers observe signals in the order
	// they were received.
	deliverMu sync.Mutex
	writeMu   sync.Mutex

	running   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(url string, opts ...ClientOption) *Client {
	options := ClientOptions{
		Dialer:         websocket.DefaultDialer,
		ReconnectDelay: DefaultReconnectDelay,
		PingInterval:   DefaultPingInterval,
		WriteTimeout:   DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		url:         url,
		options:     options,
		subscribers: map[uint64]session.ChannelHandlers{},
		done:        make(chan struct{}),
	}
}

// Subscribe registers handlers. If the client is already connected the
// OnConnected handler is invoked before Subscribe returns.
func (c *Client) Subscribe(handlers session.ChannelHandlers) func() {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = handlers
	c.order = append(c.order, id)
	connected := c.connected
	c.mu.Unlock()

	if connected && handlers.OnConnected != nil {
		handlers.OnConnected()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			for i, subscriberID := range c.order {
				if subscriberID == id {
					c.order = append(c.order[:i], c.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Run dials the translator and keeps the connection alive until ctx is
// cancelled or the client is closed. Lost connections are redialled after
// the reconnect delay.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	for {
		if c.isClosed() {
			return ErrClosed
		}

		err := c.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		} else if c.isClosed() {
			return ErrClosed
		}
		if err != nil {
			logger.Warn("translator connection lost", "url", c.url, "error", err)
		} else {
			logger.Info("translator closed the connection", "url", c.url)
		}

		timer := time.NewTimer(c.options.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-c.done:
			timer.Stop()
			return ErrClosed
		case <-timer.C:
		}
	}
}

func (c *Client) connectAndRead(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect translator channel", trace.WithAttributes(
		attribute.String("connection.id", uuid.NewString()),
		attribute.String("connection.url", c.url),
	))
	defer span.End()

	conn, resp, err := c.options.Dialer.DialContext(ctx, c.url, c.options.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		err = fmt.Errorf("failed to dial translator: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if !c.setConnection(conn) {
		_ = conn.Close()
		return ErrClosed
	}
	logger.Info("translator connected", "url", c.url)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
		case <-stop:
		}
		_ = conn.Close()
	}()
	if c.options.PingInterval > 0 {
		c.keepAlive(conn, stop)
	}

	err = c.readLoop(ctx, conn)
	close(stop)

	c.setConnection(nil)
	logger.Info("translator disconnected", "url", c.url)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	timeout := 2 * c.options.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeout))
	})

	go func() {
		ticker := time.NewTicker(c.options.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				deadline := time.Now().Add(c.options.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.isClosed() ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read from translator: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var envelope protocol.Envelope
		if err := json.Unmarshal(msg, &envelope); err != nil {
			logger.Warn("ignoring undecodable frame", "error", err)
			continue
		}

		switch envelope.Event {
		case protocol.EventAnimation:
			units, skipped, err := envelope.Animation()
			if err != nil {
				logger.Warn("ignoring malformed animation batch", "error", err)
				continue
			}
			for _, s := range skipped {
				logger.Warn("skipping malformed animation unit", "index", s.Index, "error", s.Err)
			}
			c.deliver(func(h session.ChannelHandlers) {
				if h.OnAnimationBatch != nil {
					h.OnAnimationBatch(units)
				}
			})
		default:
			logger.Debug("ignoring unknown event", "event", envelope.Event)
		}
	}
}

// RequestAnimation sends text to the translator. It fails with
// ErrNotConnected when there is no live connection.
func (c *Client) RequestAnimation(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	envelope, err := protocol.NewRequestAnimation(text)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(c.options.WriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteJSON(envelope); err != nil {
		return fmt.Errorf("failed to write animation request: %w", err)
	}
	return nil
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close drops the live connection and stops Run. It is safe to call more
// than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		conn := c.conn
		c.mu.Unlock()

		close(c.done)
		if conn != nil {
			err = conn.Close()
		}
	})
	return err
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// setConnection swaps the live connection and notifies subscribers of the
// transition. It reports false when the client was closed in the meantime.
func (c *Client) setConnection(conn *websocket.Conn) bool {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	if conn != nil && c.closed {
		c.mu.Unlock()
		return false
	}
	c.conn = conn
	c.connected = conn != nil
	c.mu.Unlock()

	c.deliverLocked(func(h session.ChannelHandlers) {
		switch {
		case conn != nil && h.OnConnected != nil:
			h.OnConnected()
		case conn == nil && h.OnDisconnected != nil:
			h.OnDisconnected()
		}
	})
	return true
}

func (c *Client) deliver(fn func(session.ChannelHandlers)) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	c.deliverLocked(fn)
}

func (c *Client) deliverLocked(fn func(session.ChannelHandlers)) {
	c.mu.Lock()
	handlers := make([]session.ChannelHandlers, 0, len(c.order))
	for _, id := range c.order {
		handlers = append(handlers, c.subscribers[id])
	}
	c.mu.Unlock()

	for _, h := range handlers {
		fn(h)
	}
}
