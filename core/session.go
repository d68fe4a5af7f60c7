package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/koscakluka/signspell/core/animation"
	"github.com/koscakluka/signspell/core/events"
	"go.opentelemetry.io/otel/attribute"
)

// ErrClosed is returned when starting or dispatching on a closed session.
var ErrClosed = errors.New("session closed")

// Session owns the playback queue, the playback cursor and the connection
// state of a single client. It is created once and lives until Close.
type Session struct {
	id      string
	options SessionOptions

	connection *connectionTracker
	buffer     *animationBuffer
	cursor     *playbackCursor
	dispatcher requestDispatcher

	pacing atomic.Int64
	emit   eventEmitter

	mu                sync.Mutex
	started           bool
	closed            atomic.Bool
	releaseChannel    func()
	releaseConnection func()
	closeOnce         sync.Once
	done              chan struct{}
}

func NewSession(opts ...SessionOption) *Session {
	options := defaultSessionOptions()
	for _, opt := range opts {
		opt(&options)
	}

	buffer := newAnimationBuffer(options.capacity, options.capacityPolicy)
	s := &Session{
		id:         uuid.NewString(),
		options:    options,
		connection: newConnectionTracker(),
		buffer:     buffer,
		cursor:     newPlaybackCursor(buffer),
		done:       make(chan struct{}),
	}
	s.pacing.Store(int64(options.pacing.Clamp()))

	deliver := noopEventEmitter
	if options.onEvent != nil || options.onConnectionStateChanged != nil || options.onLabelChanged != nil {
		deliver = newCallbackEventEmitter(options)
	}
	s.emit = func(event events.Event) {
		logger.Debug("session event",
			"session_id", s.id,
			"namespace", event.Kind().Namespace(),
			"kind", string(event.Kind()))
		deliver(event)
	}

	s.dispatcher = requestDispatcher{
		channel:     options.channel,
		onRequested: func(text string) { s.emit(events.NewAnimationRequested(text)) },
	}
	if options.serializedRequests {
		s.dispatcher.pending = buffer.Len
	}

	s.cursor.onPulled = func(unit animation.Unit, remaining int) {
		s.emit(events.NewAnimationUnitPulled(unit.Label, remaining))
	}
	s.releaseConnection = s.connection.Subscribe(func(state ConnectionState) {
		s.emit(events.NewConnectionStateChanged(state == Connected))
	})

	return s
}

// ID identifies the session in logs and traces.
func (s *Session) ID() string { return s.id }

// Start subscribes the session to its channel. The subscription is released
// by Close, which also runs once ctx is done.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.options.channel == nil {
		return ErrNoChannel
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.releaseChannel = s.options.channel.Subscribe(ChannelHandlers{
		OnConnected:      s.handleConnected,
		OnDisconnected:   s.handleDisconnected,
		OnAnimationBatch: s.handleAnimationBatch,
	})
	s.mu.Unlock()

	withContextCancelHook(ctx, s.Close, s.done)

	logger.Info("session started", "session_id", s.id)
	return nil
}

// Close releases the channel subscription and detaches connection observers.
// Signals that arrive afterwards are ignored. Close is safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		s.mu.Lock()
		releaseChannel := s.releaseChannel
		s.releaseChannel = nil
		s.mu.Unlock()

		if releaseChannel != nil {
			releaseChannel()
		}
		if s.releaseConnection != nil {
			s.releaseConnection()
		}
		s.connection.Close()
		close(s.done)

		logger.Info("session closed", "session_id", s.id, "queued_units", s.buffer.Len())
	})
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) handleConnected() {
	if s.closed.Load() {
		return
	}
	logger.Info("connected to translator", "session_id", s.id)
	s.connection.Connected()
}

func (s *Session) handleDisconnected() {
	if s.closed.Load() {
		return
	}
	logger.Info("disconnected from translator", "session_id", s.id)
	s.connection.Disconnected()
}

func (s *Session) handleAnimationBatch(batch []animation.Unit) {
	if s.closed.Load() {
		return
	}

	_, span := tracer.Start(context.Background(), "append animation batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.id),
		attribute.Int("batch.size", len(batch)),
	)

	result := s.buffer.Append(batch)
	span.SetAttributes(
		attribute.Int("batch.appended", len(result.appended)),
		attribute.Int("batch.dropped", len(result.dropped)),
		attribute.Int("batch.skipped", len(result.skipped)),
	)

	for _, err := range result.skipped {
		s.emit(events.NewAnimationUnitSkipped(err.Error()))
	}
	if len(result.dropped) > 0 {
		s.emit(events.NewAnimationUnitsDropped(labels(result.dropped)))
	}
	if len(result.appended) > 0 {
		s.emit(events.NewAnimationBatchAppended(labels(result.appended), s.buffer.Len()))
	}
}

// Dispatch sends text to the translator. Blank text fails with
// [ErrEmptyInput] and a closed session with [ErrClosed], neither sends
// anything.
func (s *Session) Dispatch(ctx context.Context, text string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.dispatcher.Dispatch(ctx, text)
}

// Pull returns the payload of the next animation unit, or false when nothing
// is queued. It never waits for more animations to arrive.
func (s *Session) Pull() (json.RawMessage, bool) { return s.cursor.Pull() }

// Next behaves like Pull but returns the whole unit, label included.
func (s *Session) Next() (animation.Unit, bool) { return s.cursor.Next() }

// CurrentLabel is the label of the most recently pulled unit.
func (s *Session) CurrentLabel() string { return s.cursor.CurrentLabel() }

func (s *Session) ConnectionState() ConnectionState { return s.connection.State() }

// SubscribeConnectionState registers onChange for connection signals. The
// returned function detaches it, Close detaches every remaining observer.
func (s *Session) SubscribeConnectionState(onChange func(ConnectionState)) (unsubscribe func()) {
	return s.connection.Subscribe(onChange)
}

func (s *Session) QueueLen() int { return s.buffer.Len() }

func (s *Session) Pacing() Pacing { return Pacing(s.pacing.Load()) }

// SetPacing stores the pacing value bounded to [MinPacing, MaxPacing] and
// returns the stored value.
func (s *Session) SetPacing(pacing Pacing) Pacing {
	pacing = pacing.Clamp()
	s.pacing.Store(int64(pacing))
	return pacing
}

// Status is a point-in-time view of the session for status displays.
type Status struct {
	Connection   ConnectionState
	CurrentLabel string
	QueueLen     int
	Pacing       Pacing
}

func (s *Session) Status() Status {
	return Status{
		Connection:   s.ConnectionState(),
		CurrentLabel: s.CurrentLabel(),
		QueueLen:     s.QueueLen(),
		Pacing:       s.Pacing(),
	}
}

func labels(units []animation.Unit) []string {
	labels := make([]string, len(units))
	for i, unit := range units {
		labels[i] = unit.Label
	}
	return labels
}
