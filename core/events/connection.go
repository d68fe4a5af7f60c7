package events

const (
	// KindConnectionStateChanged identifies a channel lifecycle signal projected
	// onto the session connection state.
	KindConnectionStateChanged Kind = "connection.state_changed"
)

// ConnectionStateChanged carries the connection state after a lifecycle
// signal. It is emitted on every signal, including idempotent repeats.
type ConnectionStateChanged struct {
	Base
	Connected bool
}

// NewConnectionStateChanged creates a connection state changed event.
func NewConnectionStateChanged(connected bool) ConnectionStateChanged {
	return ConnectionStateChanged{Base: NewBase(KindConnectionStateChanged), Connected: connected}
}
