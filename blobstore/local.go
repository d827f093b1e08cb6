package blobstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hupe1980/featbank/internal/mmap"
)

// Local implements Store on the local file system.
//
// Blobs are opened via mmap: partition files are large and decoded in one
// sequential pass, so mapping them avoids an extra full copy.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at the given directory.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Open opens a blob for reading.
func (s *Local) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(filepath.Join(s.root, name))
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AccessSequential)
	return m, nil
}

// Put writes a blob atomically via a temp file and rename.
func (s *Local) Put(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
