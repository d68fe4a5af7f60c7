package session

import (
	"encoding/json"
	"sync"

	"github.com/koscakluka/signspell/core/animation"
)

type playbackCursor struct {
	buffer *animationBuffer

	mu           sync.Mutex
	currentLabel string

	onPulled func(unit animation.Unit, remaining int)
}

func newPlaybackCursor(buffer *animationBuffer) *playbackCursor {
	return &playbackCursor{
		buffer:   buffer,
		onPulled: func(animation.Unit, int) {},
	}
}

// Pull hands out the payload of the oldest queued unit. The label only moves
// on a successful pull, an empty queue leaves it untouched.
func (c *playbackCursor) Pull() (json.RawMessage, bool) {
	unit, ok := c.Next()
	if !ok {
		return nil, false
	}
	return unit.Animation, true
}

// Next is Pull that also hands out the label of the pulled unit.
func (c *playbackCursor) Next() (animation.Unit, bool) {
	c.mu.Lock()
	unit, remaining, ok := c.buffer.take()
	if !ok {
		c.mu.Unlock()
		return animation.Unit{}, false
	}
	c.currentLabel = unit.Label
	c.mu.Unlock()

	c.onPulled(unit, remaining)
	return unit, true
}

func (c *playbackCursor) CurrentLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLabel
}
