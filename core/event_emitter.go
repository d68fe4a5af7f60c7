package session

import "github.com/koscakluka/signspell/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts SessionOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.ConnectionStateChanged:
			if opts.onConnectionStateChanged != nil {
				state := Disconnected
				if typedEvent.Connected {
					state = Connected
				}
				opts.onConnectionStateChanged(state)
			}
		case events.AnimationUnitPulled:
			if opts.onLabelChanged != nil {
				opts.onLabelChanged(typedEvent.Label)
			}
		}
	}
}
