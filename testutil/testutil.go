package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/featbank/bank"
)

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// RandomVector returns a random feature vector of the given dimensionality.
func RandomVector(rng *RNG, channels int) bank.Vector {
	v := make(bank.Vector, channels)
	rng.FillUniform(v)
	return v
}

// RandomRecord builds a record with featsPerSec random features at each of
// numSecs consecutive seconds starting at startSec.
func RandomRecord(rng *RNG, startSec, numSecs, featsPerSec, channels int) bank.Record {
	rec := make(bank.Record, numSecs)
	for sec := startSec; sec < startSec+numSecs; sec++ {
		feats := make([]bank.Vector, featsPerSec)
		for i := range feats {
			feats[i] = RandomVector(rng, channels)
		}
		rec[sec] = feats
	}
	return rec
}

// RandomBank builds a bank of numEntities random records with ids
// "<prefix>0" .. "<prefix>N-1".
func RandomBank(rng *RNG, prefix string, numEntities, startSec, numSecs, featsPerSec, channels int) bank.Bank {
	b := make(bank.Bank, numEntities)
	for i := 0; i < numEntities; i++ {
		b[fmt.Sprintf("%s%d", prefix, i)] = RandomRecord(rng, startSec, numSecs, featsPerSec, channels)
	}
	return b
}
