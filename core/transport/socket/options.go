package socket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultReconnectDelay = 2 * time.Second
	DefaultPingInterval   = 25 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
)

type ClientOptions struct {
	Dialer         *websocket.Dialer
	Header         http.Header
	ReconnectDelay time.Duration
	// PingInterval is how often the connection is probed. A connection that
	// misses two pongs in a row is treated as lost. Zero disables probing.
	PingInterval time.Duration
	WriteTimeout time.Duration
}

type ClientOption func(*ClientOptions)

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(o *ClientOptions) {
		if dialer != nil {
			o.Dialer = dialer
		}
	}
}

func WithHeader(header http.Header) ClientOption {
	return func(o *ClientOptions) { o.Header = header }
}

// WithReconnectDelay sets the pause between a lost connection and the next
// dial attempt.
func WithReconnectDelay(delay time.Duration) ClientOption {
	return func(o *ClientOptions) {
		if delay > 0 {
			o.ReconnectDelay = delay
		}
	}
}

func WithPingInterval(interval time.Duration) ClientOption {
	return func(o *ClientOptions) { o.PingInterval = max(interval, 0) }
}

func WithWriteTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		if timeout > 0 {
			o.WriteTimeout = timeout
		}
	}
}
