package backend

import (
	"context"

	"github.com/hupe1980/featbank/bank"
)

// Placement describes where an in-memory bank is intended to live. The
// lookup path is identical either way; the placement is carried so callers
// can tell replicas apart and so the host placement can warn about per-process
// duplication under multi-process training.
type Placement int

const (
	// PlacementDevice keeps the bank in memory for upload to an accelerator.
	PlacementDevice Placement = iota
	// PlacementHost keeps the bank in general-purpose host memory.
	PlacementHost
)

// String returns the placement name.
func (p Placement) String() string {
	switch p {
	case PlacementDevice:
		return "device"
	case PlacementHost:
		return "host"
	default:
		return "unknown"
	}
}

// Memory serves records from a fully-loaded in-process bank. Reads are
// lock-free: the bank is immutable after construction.
type Memory struct {
	bank      bank.Bank
	placement Placement
}

// NewMemory creates a memory backend over an already-merged bank.
func NewMemory(b bank.Bank, placement Placement) *Memory {
	return &Memory{bank: b, placement: placement}
}

// Record returns the entity's record, or ErrNotFound.
func (m *Memory) Record(_ context.Context, entityID string) (bank.Record, error) {
	rec, ok := m.bank[entityID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Len returns the number of entities. Always supported for in-memory banks.
func (m *Memory) Len() (int, bool) {
	return len(m.bank), true
}

// Placement returns where this backend's bank is placed.
func (m *Memory) Placement() Placement {
	return m.placement
}

// Close is a no-op; the bank is garbage-collected with the backend.
func (m *Memory) Close() error { return nil }
