package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/hupe1980/featbank/bank"
	"github.com/hupe1980/featbank/codec"
	"github.com/hupe1980/featbank/compress"
)

// Bucket and meta-key layout of the store file. The meta bucket makes the
// store self-describing: a process that skipped construction still decodes
// values with the codec they were written with.
var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")

	metaKeyCodec      = []byte("codec")
	metaKeyCompressor = []byte("compressor")
)

var (
	// ErrUnknownCodec is returned when the store was written with a codec
	// this build does not provide.
	ErrUnknownCodec = errors.New("store written with unknown codec")
	// ErrUnknownCompressor is the compressor analogue of ErrUnknownCodec.
	ErrUnknownCompressor = errors.New("store written with unknown compressor")
	// ErrMissingMeta is returned when the store file has no meta bucket,
	// i.e. it was not produced by Construct.
	ErrMissingMeta = errors.New("store has no meta bucket")
)

// ConstructOptions control how the persistent store is built.
type ConstructOptions struct {
	// Codec encodes each record value. Defaults to codec.Default.
	Codec codec.Codec
	// Compressor compresses each encoded value. Defaults to compress.Default.
	Compressor compress.Compressor
	// SizeHintBytes pre-sizes the store's mmap to avoid remapping while the
	// bank is written. Zero uses the bbolt default.
	SizeHintBytes int64
}

// Construct builds the persistent store at path from an already-merged bank.
//
// Intended to run exactly once, by one process (rank 0); peers must block on
// a barrier until it returns. Each entity is committed in its own
// transaction, so an interrupted construction is detectable by comparing
// entity counts, and memory stays bounded by one encoded record.
func Construct(path string, b bank.Bank, opts ConstructOptions) error {
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	cmp := opts.Compressor
	if cmp == nil {
		cmp = compress.Default
	}

	dbOpts := *bolt.DefaultOptions
	if opts.SizeHintBytes > 0 {
		dbOpts.InitialMmapSize = int(opts.SizeHintBytes)
	}

	db, err := bolt.Open(path, 0o644, &dbOpts)
	if err != nil {
		return fmt.Errorf("open store for construction: %w", err)
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		if _, err := tx.CreateBucket(bucketRecords); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(metaKeyCodec, []byte(c.Name())); err != nil {
			return err
		}
		return meta.Put(metaKeyCompressor, []byte(cmp.Name()))
	})
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		value, err := c.Marshal(b[id])
		if err != nil {
			return fmt.Errorf("encode record %q: %w", id, err)
		}
		value, err = cmp.Compress(value)
		if err != nil {
			return fmt.Errorf("compress record %q: %w", id, err)
		}

		err = db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketRecords).Put([]byte(id), value)
		})
		if err != nil {
			return fmt.Errorf("store record %q: %w", id, err)
		}
	}

	return db.Sync()
}

// Bolt serves records from a previously constructed store file, decoding one
// record per request. The handle is read-only; concurrent reads are safe
// because no writer exists after construction.
type Bolt struct {
	db    *bolt.DB
	codec codec.Codec
	comp  compress.Compressor
}

// Open opens the store at path read-only and resolves the codec and
// compressor it was constructed with.
func Open(path string) (*Bolt, error) {
	dbOpts := *bolt.DefaultOptions
	dbOpts.ReadOnly = true

	db, err := bolt.Open(path, 0o644, &dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var (
		codecName string
		compName  string
	)
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil || tx.Bucket(bucketRecords) == nil {
			return ErrMissingMeta
		}
		codecName = string(meta.Get(metaKeyCodec))
		compName = string(meta.Get(metaKeyCompressor))
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		db.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}
	cmp, ok := compress.ByName(compName)
	if !ok {
		db.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompressor, compName)
	}

	return &Bolt{db: db, codec: c, comp: cmp}, nil
}

// Record fetches and decodes one entity's record, or returns ErrNotFound.
func (b *Bolt) Record(_ context.Context, entityID string) (bank.Record, error) {
	var rec bank.Record
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketRecords).Get([]byte(entityID))
		if value == nil {
			return ErrNotFound
		}
		payload, err := b.comp.Decompress(value)
		if err != nil {
			return fmt.Errorf("decompress record %q: %w", entityID, err)
		}
		return b.codec.Unmarshal(payload, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Len reports unsupported: counting entities would require a full key scan.
func (b *Bolt) Len() (int, bool) {
	return 0, false
}

// Close releases the read handle.
func (b *Bolt) Close() error {
	return b.db.Close()
}
