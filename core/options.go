package session

import "github.com/koscakluka/signspell/core/events"

type SessionOptions struct {
	channel Channel

	capacity       int
	capacityPolicy CapacityPolicy

	pacing             Pacing
	serializedRequests bool

	onEvent                  func(events.Event)
	onConnectionStateChanged func(ConnectionState)
	onLabelChanged           func(label string)
}

type SessionOption func(*SessionOptions)

func defaultSessionOptions() SessionOptions {
	return SessionOptions{
		capacity:       DefaultCapacity,
		capacityPolicy: DefaultCapacityPolicy,
		pacing:         DefaultPacing,
	}
}

// WithChannel sets the channel the session subscribes to on [Session.Start].
func WithChannel(channel Channel) SessionOption {
	return func(o *SessionOptions) { o.channel = channel }
}

// WithCapacity bounds the playback queue. A capacity of zero or less leaves
// the queue unbounded regardless of policy.
func WithCapacity(capacity int, policy CapacityPolicy) SessionOption {
	return func(o *SessionOptions) {
		o.capacity = capacity
		o.capacityPolicy = policy
	}
}

func WithPacing(pacing Pacing) SessionOption {
	return func(o *SessionOptions) { o.pacing = pacing.Clamp() }
}

// WithSerializedRequests rejects new requests with [ErrPlaybackPending] until
// the animations of the previous one have all been pulled. Without it the
// results of overlapping requests play back as one sequence.
func WithSerializedRequests() SessionOption {
	return func(o *SessionOptions) { o.serializedRequests = true }
}

// WithEventHandler receives every session event.
func WithEventHandler(handler func(events.Event)) SessionOption {
	return func(o *SessionOptions) { o.onEvent = handler }
}

func WithOnConnectionStateChanged(callback func(ConnectionState)) SessionOption {
	return func(o *SessionOptions) { o.onConnectionStateChanged = callback }
}

func WithOnLabelChanged(callback func(label string)) SessionOption {
	return func(o *SessionOptions) { o.onLabelChanged = callback }
}
