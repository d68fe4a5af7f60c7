// Package protocol defines the messages exchanged with the translator over
// the websocket channel.
//
// Every frame is a JSON text message wrapping a named event:
//
//	{"event": "E-REQUEST-ANIMATION", "data": "good morning"}
//	{"event": "E-ANIMATION", "data": [["good", {...}], ["morning", {...}]]}
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/signspell/core/animation"
)

type EventName string

const (
	// EventRequestAnimation carries the text to translate, client to server.
	EventRequestAnimation EventName = "E-REQUEST-ANIMATION"
	// EventAnimation carries an ordered batch of `[label, animation]` pairs,
	// server to client.
	EventAnimation EventName = "E-ANIMATION"
)

var ErrEmptyRequest = errors.New("animation request text is empty")

// Envelope is the outer shape of every frame.
type Envelope struct {
	Event EventName       `json:"event" jsonschema:"enum=E-REQUEST-ANIMATION,enum=E-ANIMATION"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewRequestAnimation builds a request-animation frame for text, which must
// not be blank.
func NewRequestAnimation(text string) (Envelope, error) {
	if strings.TrimSpace(text) == "" {
		return Envelope{}, ErrEmptyRequest
	}

	data, err := json.Marshal(text)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode request text: %w", err)
	}
	return Envelope{Event: EventRequestAnimation, Data: data}, nil
}

// NewAnimation builds an animation-batch frame.
func NewAnimation(units []animation.Unit) (Envelope, error) {
	data, err := animation.EncodeBatch(units)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: EventAnimation, Data: data}, nil
}

// RequestText decodes the text of a request-animation frame.
func (e Envelope) RequestText() (string, error) {
	if e.Event != EventRequestAnimation {
		return "", fmt.Errorf("unexpected event %q", e.Event)
	}

	var text string
	if err := json.Unmarshal(e.Data, &text); err != nil {
		return "", fmt.Errorf("failed to decode request text: %w", err)
	}
	return text, nil
}

// Animation decodes the batch of an animation frame, skipping malformed
// entries.
func (e Envelope) Animation() ([]animation.Unit, []animation.SkippedUnit, error) {
	if e.Event != EventAnimation {
		return nil, nil, fmt.Errorf("unexpected event %q", e.Event)
	}
	return animation.DecodeBatch(e.Data)
}
