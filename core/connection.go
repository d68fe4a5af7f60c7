package session

import "sync"

// ConnectionState is the projection of the channel lifecycle signals.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

type connectionObserver struct {
	onChange func(ConnectionState)
}

// connectionTracker only reacts to explicit lifecycle signals, reconnecting is
// left to the channel.
type connectionTracker struct {
	// signalMu serializes transitions together with their notifications so
	// observers see states in signal order.
	signalMu sync.Mutex

	mu        sync.Mutex
	state     ConnectionState
	observers []*connectionObserver
	closed    bool
}

func newConnectionTracker() *connectionTracker {
	return &connectionTracker{state: Disconnected}
}

func (t *connectionTracker) State() ConnectionState {
	if t == nil {
		return Disconnected
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connected handles a "connected" signal. Repeats while already connected do
// not change the state but observers are still notified.
func (t *connectionTracker) Connected() { t.signal(Connected) }

// Disconnected handles a "disconnected" signal.
func (t *connectionTracker) Disconnected() { t.signal(Disconnected) }

func (t *connectionTracker) signal(state ConnectionState) {
	if t == nil {
		return
	}

	t.signalMu.Lock()
	defer t.signalMu.Unlock()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.state = state
	observers := append([]*connectionObserver(nil), t.observers...)
	t.mu.Unlock()

	for _, observer := range observers {
		observer.onChange(state)
	}
}

// Subscribe registers onChange for future transitions. The returned function
// detaches it and is safe to call more than once.
func (t *connectionTracker) Subscribe(onChange func(ConnectionState)) (unsubscribe func()) {
	if t == nil || onChange == nil {
		return func() {}
	}

	observer := &connectionObserver{onChange: onChange}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return func() {}
	}
	t.observers = append(t.observers, observer)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(observer) })
	}
}

func (t *connectionTracker) remove(observer *connectionObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, registered := range t.observers {
		if registered == observer {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close detaches every observer, any later signal is ignored.
func (t *connectionTracker) Close() {
	if t == nil {
		return
	}

	t.mu.Lock()
	t.closed = true
	t.observers = nil
	t.mu.Unlock()
}

func (t *connectionTracker) observerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers)
}
