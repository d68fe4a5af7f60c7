package animation

import (
	"encoding/json"
	"fmt"
)

// SkippedUnit describes a batch entry that was left out of a decoded batch.
type SkippedUnit struct {
	Index int
	Err   error
}

// DecodeBatch decodes an `E-ANIMATION` payload. Entries that cannot be
// decoded or fail validation are skipped and reported, the remaining entries
// keep their relative order. An error is only returned when data is not a JSON
// array at all.
func DecodeBatch(data []byte) ([]Unit, []SkippedUnit, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to decode animation batch: %w", err)
	}

	units := make([]Unit, 0, len(entries))
	var skipped []SkippedUnit
	for i, entry := range entries {
		var unit Unit
		if err := json.Unmarshal(entry, &unit); err != nil {
			skipped = append(skipped, SkippedUnit{Index: i, Err: err})
			continue
		}
		if err := unit.Validate(); err != nil {
			skipped = append(skipped, SkippedUnit{Index: i, Err: err})
			continue
		}
		units = append(units, unit)
	}

	return units, skipped, nil
}

// EncodeBatch encodes units in the `E-ANIMATION` wire form.
func EncodeBatch(units []Unit) ([]byte, error) {
	if units == nil {
		units = []Unit{}
	}

	data, err := json.Marshal(units)
	if err != nil {
		return nil, fmt.Errorf("failed to encode animation batch: %w", err)
	}
	return data, nil
}
