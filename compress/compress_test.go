package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"none", "zstd", "lz4"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("snappy")
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	// Repetitive payload so the real compressors actually shrink it.
	payload := bytes.Repeat([]byte("featbank"), 4096)

	for _, c := range []Compressor{None{}, Zstd{}, LZ4{}} {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress(payload)
			require.NoError(t, err)

			out, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, out)

			if c.Name() != "none" {
				assert.Less(t, len(compressed), len(payload))
			}
		})
	}
}

func TestRoundTripEmpty(t *testing.T) {
	for _, c := range []Compressor{None{}, Zstd{}, LZ4{}} {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress(nil)
			require.NoError(t, err)

			out, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}
