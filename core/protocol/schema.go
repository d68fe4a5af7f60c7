package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// BatchEntry documents a single `[label, animation]` pair of an animation
// batch. It is only used to describe the wire format.
type BatchEntry struct {
	Label     string `json:"label" jsonschema:"minLength=1,description=Word shown while the animation plays"`
	Animation any    `json:"animation" jsonschema:"description=Opaque animation payload handed to the renderer"`
}

// Schemas describes every frame of the protocol.
type Schemas struct {
	Envelope   *jsonschema.Schema `json:"envelope"`
	Request    *jsonschema.Schema `json:"request"`
	BatchEntry *jsonschema.Schema `json:"batchEntry"`
}

// JSONSchema reflects the wire types into JSON schemas.
func JSONSchema() Schemas {
	reflector := jsonschema.Reflector{DoNotReference: true}

	envelope := reflector.Reflect(Envelope{})

	request := &jsonschema.Schema{
		Type:        "string",
		Description: "Text to translate, must not be blank",
		Pattern:     `\S`,
	}

	// batch entries travel as positional pairs, not objects
	entry := reflector.Reflect(BatchEntry{})
	minItems, maxItems := uint64(2), uint64(2)
	batchEntry := &jsonschema.Schema{
		Type:        "array",
		Description: "[label, animation] pair",
		MinItems:    &minItems,
		MaxItems:    &maxItems,
	}
	if entry.Properties != nil {
		if label, ok := entry.Properties.Get("label"); ok {
			batchEntry.PrefixItems = append(batchEntry.PrefixItems, label)
		}
		if payload, ok := entry.Properties.Get("animation"); ok {
			batchEntry.PrefixItems = append(batchEntry.PrefixItems, payload)
		}
	}

	return Schemas{Envelope: envelope, Request: request, BatchEntry: batchEntry}
}

// MarshalSchemas renders [JSONSchema] as indented JSON.
func MarshalSchemas() ([]byte, error) {
	data, err := json.MarshalIndent(JSONSchema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal protocol schema: %w", err)
	}
	return data, nil
}
