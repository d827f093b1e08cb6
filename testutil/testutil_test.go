package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a := NewRNG(7)
		b := NewRNG(7)
		for i := 0; i < 10; i++ {
			assert.Equal(t, a.Intn(1000), b.Intn(1000))
		}
	})

	t.Run("Reset", func(t *testing.T) {
		r := NewRNG(7)
		first := r.Intn(1000)
		r.Reset()
		assert.Equal(t, first, r.Intn(1000))
		assert.Equal(t, int64(7), r.Seed())
	})

	t.Run("FillUniform", func(t *testing.T) {
		r := NewRNG(7)
		v := make([]float32, 64)
		r.FillUniform(v)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, float32(0))
			assert.Less(t, x, float32(1))
		}
	})
}

func TestGenerators(t *testing.T) {
	rng := NewRNG(42)

	rec := RandomRecord(rng, 900, 3, 4, 8)
	require.Len(t, rec, 3)
	require.Len(t, rec.FeaturesAt(901), 4)
	assert.Len(t, rec.FeaturesAt(901)[0], 8)

	b := RandomBank(rng, "vid", 5, 0, 2, 1, 8)
	require.Len(t, b, 5)
	assert.Contains(t, b, "vid0")
	assert.Contains(t, b, "vid4")
}
