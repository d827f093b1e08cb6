// Package bank defines the in-memory representation of a long-term feature
// bank: per-entity records of region features keyed by second, and the dense
// sampled blocks returned to callers.
//
// The types here are plain data; storage and sampling live in the backend and
// root packages. Records and banks are immutable after load — readers never
// need locking.
package bank

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Vector is a single region feature of fixed dimensionality.
type Vector []float32

// Record holds all region features for one entity, keyed by the second at
// which they were extracted. A second maps to the ordered features the
// offline producer emitted for it.
type Record map[int][]Vector

// FeaturesAt returns the features recorded at sec, or nil if the second has
// no entry. A nil result is normal and distinct from a missing entity.
func (r Record) FeaturesAt(sec int) []Vector {
	return r[sec]
}

// NumFeatures returns the total feature count across all seconds.
func (r Record) NumFeatures() int {
	n := 0
	for _, feats := range r {
		n += len(feats)
	}
	return n
}

// Seconds returns a bitmap of the seconds that have at least one feature.
// Negative seconds (which a producer should never emit) are skipped.
func (r Record) Seconds() *roaring.Bitmap {
	bm := roaring.New()
	for sec, feats := range r {
		if sec < 0 || len(feats) == 0 {
			continue
		}
		bm.Add(uint32(sec))
	}
	return bm
}

// Span returns the first and last populated second. ok is false for a record
// with no features at all.
func (r Record) Span() (first, last int, ok bool) {
	bm := r.Seconds()
	if bm.IsEmpty() {
		return 0, 0, false
	}
	return int(bm.Minimum()), int(bm.Maximum()), true
}
