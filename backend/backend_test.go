package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/featbank/bank"
	"github.com/hupe1980/featbank/codec"
	"github.com/hupe1980/featbank/compress"
)

func testBank() bank.Bank {
	return bank.Bank{
		"vid1": bank.Record{
			901: {bank.Vector{1.5, -2, 0.25}, bank.Vector{3, 4, 5}},
			902: {bank.Vector{-1, 0, 1}},
		},
		"vid2": bank.Record{
			10: {bank.Vector{9, 9, 9}},
		},
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(testBank(), PlacementDevice)
	defer m.Close()

	t.Run("Record", func(t *testing.T) {
		rec, err := m.Record(ctx, "vid1")
		require.NoError(t, err)
		assert.Len(t, rec.FeaturesAt(901), 2)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := m.Record(ctx, "unknown")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Len", func(t *testing.T) {
		n, ok := m.Len()
		require.True(t, ok)
		assert.Equal(t, 2, n)
	})

	t.Run("Placement", func(t *testing.T) {
		assert.Equal(t, PlacementDevice, m.Placement())
		assert.Equal(t, "device", PlacementDevice.String())
		assert.Equal(t, "host", PlacementHost.String())
	})
}

func TestBolt(t *testing.T) {
	ctx := context.Background()

	t.Run("ConstructOpenRecord", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lfb.db")
		in := testBank()

		require.NoError(t, Construct(path, in, ConstructOptions{
			Compressor:    compress.Zstd{},
			SizeHintBytes: 1 << 20,
		}))

		b, err := Open(path)
		require.NoError(t, err)
		defer b.Close()

		rec, err := b.Record(ctx, "vid1")
		require.NoError(t, err)
		assert.Equal(t, in["vid1"], rec)

		rec, err = b.Record(ctx, "vid2")
		require.NoError(t, err)
		assert.Equal(t, in["vid2"], rec)
	})

	t.Run("NotFound", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lfb.db")
		require.NoError(t, Construct(path, testBank(), ConstructOptions{}))

		b, err := Open(path)
		require.NoError(t, err)
		defer b.Close()

		_, err = b.Record(ctx, "unknown")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("LenUnsupported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lfb.db")
		require.NoError(t, Construct(path, testBank(), ConstructOptions{}))

		b, err := Open(path)
		require.NoError(t, err)
		defer b.Close()

		_, ok := b.Len()
		assert.False(t, ok)
	})

	t.Run("ReconstructionReplaces", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lfb.db")
		require.NoError(t, Construct(path, testBank(), ConstructOptions{}))

		// Rebuild with a different bank; old records must be gone.
		require.NoError(t, Construct(path, bank.Bank{
			"vid9": bank.Record{1: {bank.Vector{7}}},
		}, ConstructOptions{}))

		b, err := Open(path)
		require.NoError(t, err)
		defer b.Close()

		_, err = b.Record(ctx, "vid1")
		assert.ErrorIs(t, err, ErrNotFound)

		rec, err := b.Record(ctx, "vid9")
		require.NoError(t, err)
		assert.Equal(t, bank.Vector{7}, rec[1][0])
	})

	t.Run("OpenMissingStore", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope.db"))
		assert.Error(t, err)
	})

	t.Run("SelfDescribingCodec", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lfb.db")
		require.NoError(t, Construct(path, testBank(), ConstructOptions{
			Codec:      codec.GoJSON{},
			Compressor: compress.LZ4{},
		}))

		// Open resolves codec/compressor from the meta bucket, not from the
		// process defaults.
		b, err := Open(path)
		require.NoError(t, err)
		defer b.Close()

		rec, err := b.Record(ctx, "vid2")
		require.NoError(t, err)
		assert.Equal(t, testBank()["vid2"], rec)
	})
}
