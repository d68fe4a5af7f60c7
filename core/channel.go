package session

import (
	"context"

	"github.com/koscakluka/signspell/core/animation"
)

// Channel is the persistent bidirectional connection to the translator.
// Reconnecting after a loss is the channel's responsibility.
type Channel interface {
	// Subscribe registers handlers for lifecycle signals and incoming batches.
	// Handlers must be called in the order the signals were received. The
	// returned function detaches the handlers.
	Subscribe(handlers ChannelHandlers) (unsubscribe func())
	// RequestAnimation sends a single request-animation event.
	RequestAnimation(ctx context.Context, text string) error
}

type ChannelHandlers struct {
	OnConnected      func()
	OnDisconnected   func()
	OnAnimationBatch func(batch []animation.Unit)
}
