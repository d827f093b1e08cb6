// Package testutil provides testing utilities for featbank.
//
// This package is intended for use in tests and benchmarks only. It provides
// a seeded random source and generators for synthetic feature records.
//
//	rng := testutil.NewRNG(42)
//	rec := testutil.RandomRecord(rng, 900, 60, 4, 2048)
package testutil
