package assets

import (
	"encoding/json"
	"fmt"
)

// Entry is one manifest resource reference. On the wire it is a
// two-element array [ref, mode] where mode 1 marks the ref as an
// absolute URL and mode 0 as relative to the configured base.
type Entry struct {
	Ref      string
	Absolute bool
}

// UnmarshalJSON decodes the [ref, mode] pair shape.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("manifest entry must be an array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("manifest entry must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Ref); err != nil {
		return fmt.Errorf("manifest entry ref: %w", err)
	}
	var mode int
	if err := json.Unmarshal(raw[1], &mode); err != nil {
		return fmt.Errorf("manifest entry mode: %w", err)
	}
	e.Absolute = mode == 1
	return nil
}

// MarshalJSON encodes back to the [ref, mode] pair shape.
func (e Entry) MarshalJSON() ([]byte, error) {
	mode := 0
	if e.Absolute {
		mode = 1
	}
	return json.Marshal([]any{e.Ref, mode})
}

// Manifest describes the CSS and JS resources an app build needs.
// CSS entries are order-independent; JS entries must execute in order.
type Manifest struct {
	CSS []Entry `json:"css"`
	JS  []Entry `json:"js"`
}
