package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
//   - Integer-keyed maps (per-second feature maps) encode with string keys,
//     as encoding/json defines.
//   - float32 values round-trip exactly: the encoder emits the shortest
//     decimal that parses back to the same value.
//   - Use JSON when you want the most portable, human-inspectable partition
//     files; prefer the binary codec for large banks.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }
