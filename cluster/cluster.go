// Package cluster carries the little coordination state the feature bank
// needs when it runs inside a multi-process training job: which process this
// is, how many peers exist, and a barrier to order persistent-store
// construction before any peer reads from it.
//
// The store does not own a communication layer. Training frameworks already
// have one (a process group, an MPI communicator), so the barrier is supplied
// by the caller and the rank/world size default to the RANK and WORLD_SIZE
// environment variables those launchers export.
package cluster

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Info identifies one process within a cooperating group.
type Info struct {
	// Rank is this process's index, 0-based. Rank 0 performs one-time work
	// such as persistent-store construction.
	Rank int
	// WorldSize is the total number of cooperating processes.
	WorldSize int
}

// Single is the default single-process topology.
var Single = Info{Rank: 0, WorldSize: 1}

// IsPrimary reports whether this process is rank 0.
func (i Info) IsPrimary() bool { return i.Rank == 0 }

// Validate checks the topology for internal consistency.
func (i Info) Validate() error {
	if i.WorldSize < 1 {
		return fmt.Errorf("world size must be at least 1, got %d", i.WorldSize)
	}
	if i.Rank < 0 || i.Rank >= i.WorldSize {
		return fmt.Errorf("rank %d out of range for world size %d", i.Rank, i.WorldSize)
	}
	return nil
}

// FromEnv reads the topology from the RANK and WORLD_SIZE environment
// variables (the convention of the common distributed-training launchers).
// Missing or malformed variables fall back to the single-process topology.
func FromEnv() Info {
	info := Single
	if v, err := strconv.Atoi(os.Getenv("RANK")); err == nil {
		info.Rank = v
	}
	if v, err := strconv.Atoi(os.Getenv("WORLD_SIZE")); err == nil {
		info.WorldSize = v
	}
	if info.Validate() != nil {
		return Single
	}
	return info
}

// Barrier blocks until every cooperating process has reached it. The caller
// bridges this to whatever synchronization its training framework provides.
type Barrier func(ctx context.Context) error

// NopBarrier returns immediately. Correct only for a world size of 1.
func NopBarrier(context.Context) error { return nil }
