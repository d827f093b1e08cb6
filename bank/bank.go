package bank

import "sort"

// Bank maps entity identifiers to their feature records. It is the full
// in-memory form of a feature bank; the persistent backend materializes
// records one at a time instead and never holds a Bank.
type Bank map[string]Record

// Merge copies every record of other into b, overwriting on key collision
// (last merged partition wins). The colliding entity ids are returned,
// sorted, so the caller can surface a diagnostic — the overwrite itself is
// load-bearing for deployments that shadow one partition with another.
func (b Bank) Merge(other Bank) (collisions []string) {
	for id, rec := range other {
		if _, ok := b[id]; ok {
			collisions = append(collisions, id)
		}
		b[id] = rec
	}
	sort.Strings(collisions)
	return collisions
}

// Stats summarizes a bank for load-time logging.
type Stats struct {
	Entities int
	Features int
	Seconds  uint64
}

// ComputeStats walks the bank once and aggregates entity, feature and
// populated-second counts.
func (b Bank) ComputeStats() Stats {
	s := Stats{Entities: len(b)}
	for _, rec := range b {
		s.Features += rec.NumFeatures()
		s.Seconds += rec.Seconds().GetCardinality()
	}
	return s
}
