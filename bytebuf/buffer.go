// Package bytebuf provides Buffer, an owned or viewed span of contiguous bytes
// with bounds-checked integer accessors, slicing, search and secure release.
//
// A Buffer either owns its backing allocation or is a view onto storage owned
// by someone else (see Subarray and Wrap). Every accessor checks
// offset+size against Len and fails with a *faults.Error carrying
// faults.OutOfBounds instead of panicking.
package bytebuf

import (
	"bytes"
	"encoding/hex"

	"xdao.co/sealkit/faults"
)

// Buffer is a byte span over a backing allocation.
//
// Invariant: off+n <= len(data).
type Buffer struct {
	data     []byte
	off      int
	n        int
	owned    bool
	released bool
}

// New allocates a zero-filled owned buffer of n bytes.
func New(n int) (*Buffer, error) {
	if n < 0 {
		return nil, faults.New(faults.NegativeLength, "bytebuf: negative allocation length").With("length", n)
	}
	return &Buffer{data: make([]byte, n), n: n, owned: true}, nil
}

// FromBytes copies b into a new owned buffer.
func FromBytes(b []byte) *Buffer {
	data := make([]byte, len(b))
	copy(data, b)
	return &Buffer{data: data, n: len(data), owned: true}
}

// Wrap returns a view over b without copying. The caller keeps ownership of b.
func Wrap(b []byte) *Buffer {
	return &Buffer{data: b, n: len(b)}
}

// FromValues builds an owned buffer from byte values in [0, 255].
func FromValues(vals []int) (*Buffer, error) {
	data := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 0xFF {
			return nil, faults.New(faults.IntegerRange, "bytebuf: byte value out of range").
				With("index", i).With("value", v)
		}
		data[i] = byte(v)
	}
	return &Buffer{data: data, n: len(data), owned: true}, nil
}

// FromString encodes text with enc into a new owned buffer.
func FromString(text string, enc Encoding) (*Buffer, error) {
	data, err := encodeText(text, enc)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: data, n: len(data), owned: true}, nil
}

// From adapts buffer-like values: *Buffer (returned as is), []byte (wrapped),
// string (UTF-8 copy) and []int (byte values).
func From(v any) (*Buffer, error) {
	switch src := v.(type) {
	case *Buffer:
		if src == nil {
			return nil, faults.New(faults.InvalidSource, "bytebuf: nil buffer")
		}
		return src, nil
	case []byte:
		return Wrap(src), nil
	case string:
		return FromBytes([]byte(src)), nil
	case []int:
		return FromValues(src)
	default:
		return nil, faults.Newf(faults.InvalidSource, "bytebuf: unsupported source type %T", v)
	}
}

// Concat copies bufs, in order, into one owned buffer. Nil entries are skipped.
func Concat(bufs ...*Buffer) *Buffer {
	total := 0
	for _, b := range bufs {
		if b != nil {
			total += b.n
		}
	}
	data := make([]byte, 0, total)
	for _, b := range bufs {
		if b != nil {
			data = append(data, b.Bytes()...)
		}
	}
	return &Buffer{data: data, n: len(data), owned: true}
}

// Len is the byte length of the span.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.n
}

// Offset is the span's byte offset into its backing allocation.
func (b *Buffer) Offset() int { return b.off }

// Owned reports whether b owns its backing allocation.
func (b *Buffer) Owned() bool { return b.owned }

// Released reports whether Cleanup has been called.
func (b *Buffer) Released() bool { return b.released }

// Bytes returns the span without copying. Writes through the returned slice
// are visible to every view sharing the allocation.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	end := b.off + b.n
	return b.data[b.off:end:end]
}

func (b *Buffer) check(offset, size int) error {
	if offset < 0 || size < 0 || offset > b.n || b.n-offset < size {
		return faults.New(faults.OutOfBounds, "bytebuf: access out of bounds").
			With("offset", offset).With("size", size).With("length", b.n)
	}
	return nil
}

func (b *Buffer) checkRange(start, end int) error {
	if start < 0 || end < start || end > b.n {
		return faults.New(faults.OutOfBounds, "bytebuf: invalid range").
			With("start", start).With("end", end).With("length", b.n)
	}
	return nil
}

// Subarray returns a view of [start, end) sharing b's storage.
func (b *Buffer) Subarray(start, end int) (*Buffer, error) {
	if err := b.checkRange(start, end); err != nil {
		return nil, err
	}
	return &Buffer{data: b.data, off: b.off + start, n: end - start}, nil
}

// Slice returns an owned copy of [start, end).
func (b *Buffer) Slice(start, end int) (*Buffer, error) {
	if err := b.checkRange(start, end); err != nil {
		return nil, err
	}
	return FromBytes(b.Bytes()[start:end]), nil
}

// Clone returns an owned copy of the whole span.
func (b *Buffer) Clone() *Buffer {
	return FromBytes(b.Bytes())
}

// At returns the byte at index i.
func (b *Buffer) At(i int) (byte, error) {
	if err := b.check(i, 1); err != nil {
		return 0, err
	}
	return b.data[b.off+i], nil
}

// SetAt stores v at index i.
func (b *Buffer) SetAt(i int, v byte) error {
	if err := b.check(i, 1); err != nil {
		return err
	}
	b.data[b.off+i] = v
	return nil
}

// Set copies src into b starting at offset.
func (b *Buffer) Set(src []byte, offset int) error {
	if err := b.check(offset, len(src)); err != nil {
		return err
	}
	copy(b.data[b.off+offset:], src)
	return nil
}

// SetBuffer copies the span of src into b starting at offset.
func (b *Buffer) SetBuffer(src *Buffer, offset int) error {
	if src == nil {
		return faults.New(faults.InvalidSource, "bytebuf: nil source buffer")
	}
	return b.Set(src.Bytes(), offset)
}

// Equals compares length first, then bytes.
func (b *Buffer) Equals(other *Buffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.n != other.n {
		return false
	}
	return bytes.Equal(b.Bytes(), other.Bytes())
}

// Compare orders buffers lexicographically, like bytes.Compare.
func (b *Buffer) Compare(other *Buffer) int {
	return bytes.Compare(b.Bytes(), other.Bytes())
}

// ToString decodes the span with enc.
func (b *Buffer) ToString(enc Encoding) (string, error) {
	return decodeText(b.Bytes(), enc)
}

// String renders the span as lowercase hex.
func (b *Buffer) String() string {
	return hex.EncodeToString(b.Bytes())
}

// Wipe zero-fills the span if b owns its storage. Views are left untouched.
func (b *Buffer) Wipe() {
	if b == nil || !b.owned {
		return
	}
	clear(b.Bytes())
}

// Cleanup wipes owned storage, drops the reference to the backing allocation
// and leaves b as an empty buffer. Views only drop their reference.
func (b *Buffer) Cleanup() {
	if b == nil || b.released {
		return
	}
	b.Wipe()
	b.data = nil
	b.off = 0
	b.n = 0
	b.owned = true
	b.released = true
}
