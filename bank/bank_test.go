package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	rec := Record{
		10: {Vector{1, 1}, Vector{2, 2}},
		15: {Vector{3, 3}},
	}

	t.Run("FeaturesAt", func(t *testing.T) {
		require.Len(t, rec.FeaturesAt(10), 2)
		assert.Nil(t, rec.FeaturesAt(11))
	})

	t.Run("NumFeatures", func(t *testing.T) {
		assert.Equal(t, 3, rec.NumFeatures())
	})

	t.Run("Seconds", func(t *testing.T) {
		bm := rec.Seconds()
		assert.True(t, bm.Contains(10))
		assert.True(t, bm.Contains(15))
		assert.False(t, bm.Contains(11))
		assert.Equal(t, uint64(2), bm.GetCardinality())
	})

	t.Run("SecondsSkipsNegativeAndEmpty", func(t *testing.T) {
		r := Record{
			-3: {Vector{1}},
			7:  {},
			9:  {Vector{2}},
		}
		bm := r.Seconds()
		assert.Equal(t, uint64(1), bm.GetCardinality())
		assert.True(t, bm.Contains(9))
	})

	t.Run("Span", func(t *testing.T) {
		first, last, ok := rec.Span()
		require.True(t, ok)
		assert.Equal(t, 10, first)
		assert.Equal(t, 15, last)

		_, _, ok = Record{}.Span()
		assert.False(t, ok)
	})
}

func TestBankMerge(t *testing.T) {
	t.Run("LastPartitionWins", func(t *testing.T) {
		a := Bank{"x": Record{1: {Vector{1}}}, "y": Record{2: {Vector{2}}}}
		b := Bank{"x": Record{1: {Vector{9}}}}

		collisions := a.Merge(b)

		require.Equal(t, []string{"x"}, collisions)
		assert.Equal(t, Vector{9}, a["x"][1][0])
		assert.Equal(t, Vector{2}, a["y"][2][0])
	})

	t.Run("DisjointNoCollisions", func(t *testing.T) {
		a := Bank{"x": Record{}}
		collisions := a.Merge(Bank{"y": Record{}})
		assert.Empty(t, collisions)
		assert.Len(t, a, 2)
	})
}

func TestBankStats(t *testing.T) {
	b := Bank{
		"x": Record{1: {Vector{1}, Vector{2}}, 2: {Vector{3}}},
		"y": Record{5: {Vector{4}}},
	}
	s := b.ComputeStats()
	assert.Equal(t, 2, s.Entities)
	assert.Equal(t, 4, s.Features)
	assert.Equal(t, uint64(3), s.Seconds)
}

func TestBlock(t *testing.T) {
	t.Run("ZeroFilled", func(t *testing.T) {
		blk := NewBlock(4, 3)
		assert.Equal(t, 4, blk.Rows())
		assert.Equal(t, 3, blk.Channels())
		assert.True(t, blk.IsZero())
		assert.Len(t, blk.Data(), 12)
	})

	t.Run("SetRow", func(t *testing.T) {
		blk := NewBlock(2, 3)
		blk.SetRow(1, Vector{7, 8, 9})
		assert.Equal(t, []float32{0, 0, 0}, blk.Row(0))
		assert.Equal(t, []float32{7, 8, 9}, blk.Row(1))
		assert.False(t, blk.IsZero())
	})

	t.Run("SetRowShortVectorLeavesTailZero", func(t *testing.T) {
		blk := NewBlock(1, 3)
		blk.SetRow(0, Vector{5})
		assert.Equal(t, []float32{5, 0, 0}, blk.Row(0))
	})
}
