package compress

import (
	"github.com/klauspost/compress/zstd"
)

// Shared encoder/decoder; EncodeAll/DecodeAll are safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Zstd compresses payloads with Zstandard. Best ratio on feature banks and
// the recommended choice for persistent-store values.
type Zstd struct{}

// Compress returns the zstd-compressed payload.
func (Zstd) Compress(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress reverses Compress.
func (Zstd) Decompress(data []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, nil)
}

// Name returns "zstd".
func (Zstd) Name() string { return "zstd" }
