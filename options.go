package featbank

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/hupe1980/featbank/blobstore"
	"github.com/hupe1980/featbank/cluster"
	"github.com/hupe1980/featbank/codec"
	"github.com/hupe1980/featbank/compress"
)

// BackendKind selects the storage strategy underlying the bank.
type BackendKind string

const (
	// BackendDevice loads the full bank into memory destined for an
	// accelerator. Best latency, highest memory cost.
	BackendDevice BackendKind = "device"
	// BackendHost loads the full bank into host memory. Under multi-process
	// training every process duplicates the bank; BackendPersistent is
	// usually the better choice there.
	BackendHost BackendKind = "host"
	// BackendPersistent keeps the bank in an embedded key-value store file
	// shared by all processes, decoding one record per request.
	BackendPersistent BackendKind = "persistent"
)

// ParseBackendKind converts a configuration string into a BackendKind.
func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case BackendDevice, BackendHost, BackendPersistent:
		return BackendKind(s), nil
	default:
		return "", fmt.Errorf("backend must be %q, %q or %q, got %q",
			BackendDevice, BackendHost, BackendPersistent, s)
	}
}

const (
	// DefaultMaxSamples is the per-second sample cap.
	DefaultMaxSamples = 5
	// DefaultWindowSize is the sampling window in seconds.
	DefaultWindowSize = 60
	// DefaultChannels is the feature dimensionality.
	DefaultChannels = 2048
	// DefaultStoreSizeBytes is the persistent store's size hint (4 GB).
	DefaultStoreSizeBytes = int64(4e9)
)

type options struct {
	maxSamples       int
	windowSize       int
	channels         int
	partitions       []string
	backendKind      BackendKind
	storeSizeBytes   int64
	skipConstruction bool
	codec            codec.Codec
	compressor       compress.Compressor
	blobs            blobstore.Store
	cluster          cluster.Info
	barrier          cluster.Barrier
	logger           *Logger
	metrics          MetricsCollector
	randSrc          rand.Source
}

// Option configures Store construction.
type Option func(*options)

// WithMaxSamples sets the maximum number of features sampled per second.
func WithMaxSamples(n int) Option {
	return func(o *options) {
		o.maxSamples = n
	}
}

// WithWindowSize sets the sampling window size in seconds. The window is
// centered on the query timestamp.
func WithWindowSize(seconds int) Option {
	return func(o *options) {
		o.windowSize = seconds
	}
}

// WithChannels sets the feature dimensionality of the stored bank.
func WithChannels(channels int) Option {
	return func(o *options) {
		o.channels = channels
	}
}

// WithPartitions sets the ordered dataset partitions to merge, e.g.
// "train", "val". When two partitions define the same entity, the later one
// wins; each collision is logged as a warning.
func WithPartitions(names ...string) Option {
	return func(o *options) {
		o.partitions = names
	}
}

// WithBackend selects the storage strategy.
func WithBackend(kind BackendKind) Option {
	return func(o *options) {
		o.backendKind = kind
	}
}

// WithStoreSizeBytes hints the maximum size of the persistent store.
// Ignored by the in-memory backends.
func WithStoreSizeBytes(n int64) Option {
	return func(o *options) {
		o.storeSizeBytes = n
	}
}

// WithSkipConstruction skips rebuilding the persistent store when it is
// known to already exist. Ignored by the in-memory backends.
func WithSkipConstruction() Option {
	return func(o *options) {
		o.skipConstruction = true
	}
}

// WithCodec configures the codec used when this process writes the
// persistent store. Reads always use the codec recorded in the data.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompressor configures the compressor used when this process writes the
// persistent store. Reads always use the compressor recorded in the data.
//
// If nil is passed, compress.Default is used.
func WithCompressor(c compress.Compressor) Option {
	return func(o *options) {
		if c == nil {
			c = compress.Default
		}
		o.compressor = c
	}
}

// WithBlobStore overrides where partition files are read from. Defaults to
// the local filesystem rooted at the bank prefix; use the s3 or minio
// subpackages to pull partitions from object storage.
func WithBlobStore(bs blobstore.Store) Option {
	return func(o *options) {
		o.blobs = bs
	}
}

// WithCluster sets the process topology explicitly. Defaults to the RANK and
// WORLD_SIZE environment variables, falling back to single-process.
func WithCluster(info cluster.Info) Option {
	return func(o *options) {
		o.cluster = info
	}
}

// WithBarrier supplies the cross-process barrier used to order
// persistent-store construction. Required for the persistent backend when
// the world size is greater than one.
func WithBarrier(b cluster.Barrier) Option {
	return func(o *options) {
		o.barrier = b
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithRandSource seeds the sampler's random source. Sampling is intentionally
// nondeterministic (stochastic sub-sampling is a training-time augmentation);
// supply a fixed source only where reproducibility matters, such as tests.
func WithRandSource(src rand.Source) Option {
	return func(o *options) {
		o.randSrc = src
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxSamples:     DefaultMaxSamples,
		windowSize:     DefaultWindowSize,
		channels:       DefaultChannels,
		partitions:     []string{"train", "val"},
		backendKind:    BackendDevice,
		storeSizeBytes: DefaultStoreSizeBytes,
		metrics:        NoopMetricsCollector{},
		logger:         NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
