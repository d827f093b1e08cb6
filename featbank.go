// Package featbank provides a long-term feature bank store for video
// understanding workloads.
//
// A feature bank maps entity ids (video ids) to per-second region features
// produced by an offline inference job. At training time, callers ask for a
// fixed-size block of features sampled from a window of seconds around a
// query timestamp; the block is the long-term context fed to the downstream
// model.
//
//   - Three storage backends: device-resident, host-resident, or a shared
//     embedded key-value store on disk (see BackendKind)
//   - Windowed random sampling without replacement, zero-filled to a fixed
//     shape
//   - Self-describing partition files with pluggable codecs and compression
//   - Partition sources on local disk, S3 or MinIO (see blobstore)
//   - Rank-aware construction with a caller-supplied barrier for
//     multi-process training jobs
//
// # Quick Start
//
//	ctx := context.Background()
//	store, err := featbank.New(ctx, "/data/lfb/ava",
//	    featbank.WithChannels(2048),
//	    featbank.WithPartitions("train", "val"),
//	    featbank.WithBackend(featbank.BackendHost),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	block, err := store.Sample(ctx, "0f39OWEqJ24", 902)
//
// The bank is read-only for the store's lifetime: there is no update or
// delete path, and a fully-constructed store is safe for concurrent readers
// without locking.
package featbank

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/featbank/backend"
	"github.com/hupe1980/featbank/blobstore"
	"github.com/hupe1980/featbank/cluster"
	"github.com/hupe1980/featbank/partition"
)

// StoreFileName is the persistent store's file name under the bank prefix.
const StoreFileName = "lfb.db"

// Store is a read-side handle over a long-term feature bank. Construct it
// once per process with New and pass it explicitly to every consumer; there
// is no package-level instance.
type Store struct {
	opts    options
	backend backend.Backend

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New constructs a Store over the bank rooted at prefix.
//
// For the in-memory backends the configured partitions are fully loaded and
// merged before New returns. For the persistent backend, rank 0 constructs
// the store file (unless WithSkipConstruction is set), every process then
// passes the configured barrier, and finally each process opens a read-only
// handle. Construction errors are fatal; the bank is required input and
// there is no degraded mode.
func New(ctx context.Context, prefix string, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)

	if err := validateOptions(&o); err != nil {
		return nil, err
	}

	info := o.cluster
	if info.WorldSize == 0 {
		info = cluster.FromEnv()
	}
	if err := info.Validate(); err != nil {
		return nil, &ConfigError{Option: "cluster", Reason: err.Error(), cause: err}
	}

	// The prefix must exist whenever it is actually used as a local path:
	// for the default blob store, and for the persistent store file.
	if o.blobs == nil || o.backendKind == BackendPersistent {
		if fi, err := os.Stat(prefix); err != nil || !fi.IsDir() {
			return nil, &ConfigError{
				Option: "prefix",
				Reason: fmt.Sprintf("bank prefix %q does not exist", prefix),
				cause:  err,
			}
		}
	}

	blobs := o.blobs
	if blobs == nil {
		blobs = blobstore.NewLocal(prefix)
	}

	log := o.logger.WithBackend(o.backendKind)

	var (
		be  backend.Backend
		err error
	)
	switch o.backendKind {
	case BackendDevice:
		be, err = newMemoryBackend(ctx, blobs, &o, backend.PlacementDevice, log)
	case BackendHost:
		if info.WorldSize > 1 {
			log.Warn("host-resident bank is duplicated in every process under multi-process training; consider the persistent backend",
				"world_size", info.WorldSize,
			)
		}
		be, err = newMemoryBackend(ctx, blobs, &o, backend.PlacementHost, log)
	case BackendPersistent:
		be, err = newPersistentBackend(ctx, prefix, blobs, &o, info, log)
	default:
		return nil, &ConfigError{
			Option: "backend",
			Reason: fmt.Sprintf("unrecognized backend %q", o.backendKind),
		}
	}
	if err != nil {
		return nil, err
	}

	src := o.randSrc
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}

	return &Store{
		opts:    o,
		backend: be,
		rng:     rand.New(src),
	}, nil
}

func validateOptions(o *options) error {
	if o.maxSamples <= 0 {
		return &ConfigError{Option: "max samples", Reason: "must be positive"}
	}
	if o.windowSize <= 0 {
		return &ConfigError{Option: "window size", Reason: "must be positive"}
	}
	if o.channels <= 0 {
		return &ConfigError{Option: "channels", Reason: "must be positive"}
	}
	if _, err := ParseBackendKind(string(o.backendKind)); err != nil {
		return &ConfigError{Option: "backend", Reason: err.Error(), cause: err}
	}
	return nil
}

func newMemoryBackend(ctx context.Context, blobs blobstore.Store, o *options, placement backend.Placement, log *Logger) (backend.Backend, error) {
	start := time.Now()
	b, err := partition.Load(ctx, blobs, o.partitions, o.channels, log.Logger)
	o.metrics.RecordLoad(len(o.partitions), time.Since(start), err)
	log.LogLoad(ctx, o.partitions, len(b), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	stats := b.ComputeStats()
	log.Debug("bank statistics",
		"entities", stats.Entities,
		"features", stats.Features,
		"seconds", stats.Seconds,
	)

	return backend.NewMemory(b, placement), nil
}

func newPersistentBackend(ctx context.Context, prefix string, blobs blobstore.Store, o *options, info cluster.Info, log *Logger) (backend.Backend, error) {
	storePath := filepath.Join(prefix, StoreFileName)

	if info.IsPrimary() && !o.skipConstruction {
		start := time.Now()
		b, err := partition.Load(ctx, blobs, o.partitions, o.channels, log.Logger)
		o.metrics.RecordLoad(len(o.partitions), time.Since(start), err)
		if err != nil {
			log.LogConstruct(ctx, storePath, 0, time.Since(start), err)
			return nil, err
		}

		err = backend.Construct(storePath, b, backend.ConstructOptions{
			Codec:         o.codec,
			Compressor:    o.compressor,
			SizeHintBytes: o.storeSizeBytes,
		})
		log.LogConstruct(ctx, storePath, len(b), time.Since(start), err)
		if err != nil {
			return nil, err
		}
	}

	// No process may read before rank 0 has committed every entry.
	if info.WorldSize > 1 {
		if o.barrier == nil {
			return nil, &ConfigError{
				Option: "barrier",
				Reason: "persistent backend requires a barrier when world size > 1",
			}
		}
		if err := o.barrier(ctx); err != nil {
			return nil, fmt.Errorf("construction barrier: %w", err)
		}
	}

	return backend.Open(storePath)
}

// Len returns the number of entities in the bank. The persistent backend
// cannot report this without a full key scan and returns ErrLenUnsupported.
func (s *Store) Len() (int, error) {
	n, ok := s.backend.Len()
	if !ok {
		return 0, ErrLenUnsupported
	}
	return n, nil
}

// Close releases the underlying backend handle. The Store must not be used
// after Close.
func (s *Store) Close() error {
	return s.backend.Close()
}
