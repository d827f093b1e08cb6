package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/featbank/bank"
)

// Binary is a little-endian binary codec specialized for feature-bank values.
// It encodes bank.Bank and bank.Record (values or pointers) and nothing else;
// this replaced a reflection-based encoding that dominated load time on
// multi-gigabyte banks.
//
// Map keys are written in ascending/lexicographic order so the same value
// always produces the same bytes.
type Binary struct{}

const (
	binaryKindBank   = 1
	binaryKindRecord = 2
)

var (
	// ErrUnsupportedValue is returned when a value other than a bank.Bank or
	// bank.Record is passed to the binary codec.
	ErrUnsupportedValue = errors.New("binary codec supports bank.Bank and bank.Record only")

	errTruncated = errors.New("truncated binary payload")
)

// Marshal encodes a bank.Bank or bank.Record.
func (Binary) Marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case bank.Bank:
		return appendBank([]byte{binaryKindBank}, t), nil
	case *bank.Bank:
		return appendBank([]byte{binaryKindBank}, *t), nil
	case bank.Record:
		return appendRecord([]byte{binaryKindRecord}, t), nil
	case *bank.Record:
		return appendRecord([]byte{binaryKindRecord}, *t), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedValue, v)
	}
}

// Unmarshal decodes into a *bank.Bank or *bank.Record.
func (Binary) Unmarshal(data []byte, v any) error {
	if len(data) < 1 {
		return errTruncated
	}
	kind, rest := data[0], data[1:]

	switch t := v.(type) {
	case *bank.Bank:
		if kind != binaryKindBank {
			return fmt.Errorf("binary payload holds kind %d, want bank", kind)
		}
		b, _, err := readBank(rest)
		if err != nil {
			return err
		}
		*t = b
		return nil
	case *bank.Record:
		if kind != binaryKindRecord {
			return fmt.Errorf("binary payload holds kind %d, want record", kind)
		}
		r, _, err := readRecord(rest)
		if err != nil {
			return err
		}
		*t = r
		return nil
	default:
		return fmt.Errorf("%w: got %T", ErrUnsupportedValue, v)
	}
}

// Name returns the unique name of the codec ("binary").
func (Binary) Name() string { return "binary" }

func appendBank(dst []byte, b bank.Bank) []byte {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(ids)))
	for _, id := range ids {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(id)))
		dst = append(dst, id...)
		dst = appendRecord(dst, b[id])
	}
	return dst
}

func appendRecord(dst []byte, r bank.Record) []byte {
	secs := make([]int, 0, len(r))
	for sec := range r {
		secs = append(secs, sec)
	}
	sort.Ints(secs)

	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(secs)))
	for _, sec := range secs {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(int64(sec)))
		feats := r[sec]
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(feats)))
		for _, f := range feats {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(len(f)))
			for _, x := range f {
				dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(x))
			}
		}
	}
	return dst
}

func readBank(data []byte) (bank.Bank, []byte, error) {
	n, data, err := readUint32(data)
	if err != nil {
		return nil, nil, err
	}
	// Every entity needs at least an id length and a second count.
	if uint64(n) > uint64(len(data))/8 {
		return nil, nil, errTruncated
	}
	b := make(bank.Bank, n)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		idLen, data, err = readUint32(data)
		if err != nil {
			return nil, nil, err
		}
		if uint32(len(data)) < idLen {
			return nil, nil, errTruncated
		}
		id := string(data[:idLen])
		data = data[idLen:]

		var rec bank.Record
		rec, data, err = readRecord(data)
		if err != nil {
			return nil, nil, err
		}
		b[id] = rec
	}
	return b, data, nil
}

func readRecord(data []byte) (bank.Record, []byte, error) {
	n, data, err := readUint32(data)
	if err != nil {
		return nil, nil, err
	}
	// Every second needs at least its key and a feature count.
	if uint64(n) > uint64(len(data))/12 {
		return nil, nil, errTruncated
	}
	r := make(bank.Record, n)
	for i := uint32(0); i < n; i++ {
		if len(data) < 8 {
			return nil, nil, errTruncated
		}
		sec := int(int64(binary.LittleEndian.Uint64(data)))
		data = data[8:]

		var numFeats uint32
		numFeats, data, err = readUint32(data)
		if err != nil {
			return nil, nil, err
		}
		// Every feature needs at least a dimension prefix.
		if uint64(numFeats) > uint64(len(data))/4 {
			return nil, nil, errTruncated
		}
		feats := make([]bank.Vector, numFeats)
		for j := uint32(0); j < numFeats; j++ {
			var dim uint32
			dim, data, err = readUint32(data)
			if err != nil {
				return nil, nil, err
			}
			// dim*4 can wrap in uint32, so compare in uint64.
			if uint64(dim)*4 > uint64(len(data)) {
				return nil, nil, errTruncated
			}
			v := make(bank.Vector, dim)
			for k := range v {
				v[k] = math.Float32frombits(binary.LittleEndian.Uint32(data[k*4:]))
			}
			data = data[dim*4:]
			feats[j] = v
		}
		r[sec] = feats
	}
	return r, data, nil
}

func readUint32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, errTruncated
	}
	return binary.LittleEndian.Uint32(data), data[4:], nil
}
