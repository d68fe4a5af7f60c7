package animation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedUnit is returned for batch entries that are missing a label or
// an animation payload.
var ErrMalformedUnit = errors.New("malformed animation unit")

// Unit is a single translated word together with the payload that renders it.
// The payload is opaque, only the label is ever read.
type Unit struct {
	Label     string
	Animation json.RawMessage
}

// Validate reports whether the unit can be played.
func (u Unit) Validate() error {
	if u.Label == "" {
		return fmt.Errorf("%w: missing label", ErrMalformedUnit)
	}

	if trimmed := bytes.TrimSpace(u.Animation); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: missing animation for %q", ErrMalformedUnit, u.Label)
	}

	return nil
}

// MarshalJSON encodes the unit in its wire form, a `[label, animation]` pair.
func (u Unit) MarshalJSON() ([]byte, error) {
	animation := u.Animation
	if len(animation) == 0 {
		animation = json.RawMessage("null")
	}
	return json.Marshal([2]any{u.Label, animation})
}

// UnmarshalJSON decodes a `[label, animation]` pair. It does not validate
// the decoded values, see [Unit.Validate].
func (u *Unit) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: expected [label, animation] pair: %v", ErrMalformedUnit, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected 2 elements, got %d", ErrMalformedUnit, len(pair))
	}

	var label string
	if err := json.Unmarshal(pair[0], &label); err != nil {
		return fmt.Errorf("%w: label is not a string: %v", ErrMalformedUnit, err)
	}

	u.Label = label
	u.Animation = append(json.RawMessage(nil), pair[1]...)
	return nil
}
