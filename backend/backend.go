// Package backend decouples how feature-bank data is stored from how it is
// sampled. A backend resolves one entity's record at a time; the sampler on
// top never knows whether the record came from process memory or from the
// persistent store.
package backend

import (
	"context"
	"errors"

	"github.com/hupe1980/featbank/bank"
)

// ErrNotFound is returned when an entity has no record in the backend. This
// is a caller-visible condition (skip the sample, pick another clip) and is
// distinct from "no features at this second", which samplers zero-fill.
var ErrNotFound = errors.New("entity not found")

// Backend resolves feature records by entity id.
//
// Implementations must be safe for concurrent readers: the bank is immutable
// once the backend is constructed, and no writer coexists with readers.
type Backend interface {
	// Record returns the feature record for the entity, or ErrNotFound.
	Record(ctx context.Context, entityID string) (bank.Record, error)

	// Len returns the number of entities and whether the backend can report
	// it without a full scan.
	Len() (int, bool)

	// Close releases the backend's resources.
	Close() error
}
