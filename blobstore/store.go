// Package blobstore abstracts where partition files live.
//
// The feature-bank loader only ever reads whole, immutable partition blobs;
// Put exists so offline producers (and tests) can emit them through the same
// abstraction. Local disk is the default; the S3 and MinIO subpackages cover
// deployments where the bank is produced once and shared by many training
// hosts.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for accessing immutable partition blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any existing blob of that name.
	Put(ctx context.Context, name string, data []byte) error
}

// Blob is a read-only handle to a partition blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// ReadAll reads the full contents of a blob.
func ReadAll(b Blob) ([]byte, error) {
	data := make([]byte, b.Size())
	if len(data) == 0 {
		return data, nil
	}
	if _, err := b.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}
