// Package codec centralizes feature-bank payload encoding.
//
// Persisted partition files and persistent-store values record the codec name
// in their header, so bytes written with one codec are always decoded with
// the same one. Changing codecs is a breaking-change boundary for
// already-persisted data.
package codec

import "fmt"

// Codec encodes/decodes feature-bank values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Partition files and store values are self-describing: they carry the codec
// name in their header, and readers select the codec through this function.
func ByName(name string) (Codec, bool) {
	switch name {
	case "binary":
		return Binary{}, true
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used for newly-written partition files and store
// values. Feature banks are float-heavy, so the native binary layout is the
// default; the JSON codecs remain available for portability and debugging.
var Default Codec = Binary{}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
