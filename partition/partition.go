// Package partition reads and writes serialized feature-bank partitions.
//
// A partition file holds one bank.Bank (all entities of one dataset split)
// behind a small self-describing header: magic, format version, channel
// count, codec name and compressor name. Readers select the codec and
// compressor from the header, so the on-disk format survives changes to the
// library defaults.
//
// Files follow the `lfb_<partition>.bank` naming convention under the bank
// prefix, e.g. `lfb_train.bank`, `lfb_val.bank`.
package partition

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/featbank/bank"
	"github.com/hupe1980/featbank/blobstore"
	"github.com/hupe1980/featbank/codec"
	"github.com/hupe1980/featbank/compress"
)

const (
	// MagicNumber identifies partition files (ASCII: "LFB1").
	MagicNumber = 0x4C464231
	// Version is the current file format version.
	Version = 1
)

var (
	// ErrInvalidMagic is returned when a file does not start with MagicNumber.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion is returned for unsupported format versions.
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrUnknownCodec is returned when the header names a codec this build
	// does not provide.
	ErrUnknownCodec = errors.New("unknown codec")
	// ErrUnknownCompressor is returned when the header names a compressor
	// this build does not provide.
	ErrUnknownCompressor = errors.New("unknown compressor")
	// ErrChannelMismatch is returned when the file's channel count differs
	// from the one the reader was configured with.
	ErrChannelMismatch = errors.New("channel count mismatch")

	errTruncatedHeader = errors.New("truncated partition header")
)

// FileName returns the blob name for a partition, e.g. "lfb_train.bank".
func FileName(name string) string {
	return "lfb_" + name + ".bank"
}

// WriteOptions control how a partition is encoded.
type WriteOptions struct {
	// Codec encodes the bank. Defaults to codec.Default.
	Codec codec.Codec
	// Compressor compresses the encoded payload. Defaults to compress.Default.
	Compressor compress.Compressor
	// Channels is the feature dimensionality recorded in the header. Zero
	// means unspecified; readers then skip the channel check.
	Channels int
}

// Write encodes b and stores it under FileName(name).
func Write(ctx context.Context, store blobstore.Store, name string, b bank.Bank, opts WriteOptions) error {
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	cmp := opts.Compressor
	if cmp == nil {
		cmp = compress.Default
	}

	payload, err := c.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode partition %q: %w", name, err)
	}
	payload, err = cmp.Compress(payload)
	if err != nil {
		return fmt.Errorf("compress partition %q: %w", name, err)
	}

	header := appendHeader(nil, uint32(opts.Channels), c.Name(), cmp.Name())
	return store.Put(ctx, FileName(name), append(header, payload...))
}

// Read loads the partition stored under FileName(name).
//
// wantChannels > 0 enforces that the file was produced for the same feature
// dimensionality; pass 0 to skip the check.
func Read(ctx context.Context, store blobstore.Store, name string, wantChannels int) (bank.Bank, error) {
	blob, err := store.Open(ctx, FileName(name))
	if err != nil {
		return nil, fmt.Errorf("open partition %q: %w", name, err)
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(blob)
	if err != nil {
		return nil, fmt.Errorf("read partition %q: %w", name, err)
	}

	channels, codecName, compName, payload, err := readHeader(data)
	if err != nil {
		return nil, fmt.Errorf("partition %q: %w", name, err)
	}
	if wantChannels > 0 && channels > 0 && int(channels) != wantChannels {
		return nil, fmt.Errorf("partition %q: %w: file has %d, want %d",
			name, ErrChannelMismatch, channels, wantChannels)
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("partition %q: %w: %q", name, ErrUnknownCodec, codecName)
	}
	cmp, ok := compress.ByName(compName)
	if !ok {
		return nil, fmt.Errorf("partition %q: %w: %q", name, ErrUnknownCompressor, compName)
	}

	payload, err = cmp.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("decompress partition %q: %w", name, err)
	}

	var b bank.Bank
	if err := c.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("decode partition %q: %w", name, err)
	}
	return b, nil
}

func appendHeader(dst []byte, channels uint32, codecName, compName string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, MagicNumber)
	dst = binary.LittleEndian.AppendUint32(dst, Version)
	dst = binary.LittleEndian.AppendUint32(dst, channels)
	dst = append(dst, byte(len(codecName)))
	dst = append(dst, codecName...)
	dst = append(dst, byte(len(compName)))
	dst = append(dst, compName...)
	return dst
}

func readHeader(data []byte) (channels uint32, codecName, compName string, payload []byte, err error) {
	if len(data) < 12 {
		return 0, "", "", nil, errTruncatedHeader
	}
	if magic := binary.LittleEndian.Uint32(data); magic != MagicNumber {
		return 0, "", "", nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:]); version != Version {
		return 0, "", "", nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, version)
	}
	channels = binary.LittleEndian.Uint32(data[8:])
	data = data[12:]

	codecName, data, err = readString(data)
	if err != nil {
		return 0, "", "", nil, err
	}
	compName, data, err = readString(data)
	if err != nil {
		return 0, "", "", nil, err
	}
	return channels, codecName, compName, data, nil
}

func readString(data []byte) (string, []byte, error) {
	if len(data) < 1 {
		return "", nil, errTruncatedHeader
	}
	n := int(data[0])
	if len(data) < 1+n {
		return "", nil, errTruncatedHeader
	}
	return string(data[1 : 1+n]), data[1+n:], nil
}
