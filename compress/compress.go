// Package compress provides optional compression for persisted feature-bank
// payloads. Region features are dense float32 data with a lot of shared
// structure across seconds, so partition files and persistent-store values
// typically shrink 2-4x under zstd.
//
// Like codecs, compressors are named and the name is recorded in persisted
// headers; readers select the compressor by name.
package compress

import "errors"

// Compressor compresses and decompresses byte payloads.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// ErrUnknownCompressor is returned by ByName for unrecognized names.
var ErrUnknownCompressor = errors.New("unknown compressor")

// ByName returns a built-in compressor by its stable name.
func ByName(name string) (Compressor, bool) {
	switch name {
	case "none":
		return None{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// Default is the compressor used for newly-written payloads.
var Default Compressor = None{}

// None is the identity compressor.
type None struct{}

// Compress returns data unchanged.
func (None) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }

// Name returns "none".
func (None) Name() string { return "none" }
