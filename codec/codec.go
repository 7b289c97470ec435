// Package codec packs bucket index sequences into compact fixed-width binary
// keys.
//
// Simindex intentionally treats width selection as a breaking-change boundary:
// the width is derived from the configured row count, and keys written under
// one width never match keys written under another. Equal bucket sequences
// produce byte-identical keys, so stored keys can be compared without
// decoding.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Width is the byte width of one encoded bucket index.
type Width int

// Supported big-endian unsigned integer widths.
const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8
)

var widths = []struct {
	max   uint64
	width Width
}{
	{1<<8 - 1, Width8},
	{1<<16 - 1, Width16},
	{1<<32 - 1, Width32},
	{1<<64 - 1, Width64},
}

// ErrWidthOverflow indicates that no supported width can represent the
// requested size.
type ErrWidthOverflow struct {
	Size uint64
}

func (e *ErrWidthOverflow) Error() string {
	return fmt.Sprintf("no supported width can encode size %d", e.Size)
}

// SelectWidth returns the narrowest width whose maximum representable value
// covers size.
func SelectWidth(size uint64) (Width, error) {
	for _, w := range widths {
		if w.max >= size {
			return w.width, nil
		}
	}
	return 0, &ErrWidthOverflow{Size: size}
}

// Encoder packs bucket index sequences at a fixed width.
// It is stateless after construction and safe for concurrent use.
type Encoder struct {
	width Width
}

// NewEncoder creates an Encoder whose width is the narrowest that covers
// size, the configured row count of the index.
func NewEncoder(size uint64) (*Encoder, error) {
	width, err := SelectWidth(size)
	if err != nil {
		return nil, err
	}
	return &Encoder{width: width}, nil
}

// Width returns the byte width of one encoded bucket index.
func (e *Encoder) Width() Width { return e.width }

// Encode concatenates the fixed-width big-endian encoding of each bucket
// index into one binary key.
func (e *Encoder) Encode(buckets []int) []byte {
	buf := make([]byte, 0, len(buckets)*int(e.width))
	for _, b := range buckets {
		buf = e.appendUint(buf, uint64(b))
	}
	return buf
}

func (e *Encoder) appendUint(buf []byte, v uint64) []byte {
	switch e.width {
	case Width8:
		return append(buf, byte(v))
	case Width16:
		return binary.BigEndian.AppendUint16(buf, uint16(v))
	case Width32:
		return binary.BigEndian.AppendUint32(buf, uint32(v))
	default:
		return binary.BigEndian.AppendUint64(buf, v)
	}
}
