package binproto

import (
	"xdao.co/sealkit/bytebuf"
	"xdao.co/sealkit/faults"
)

// Reader is a cursor over a Buffer. Reads return views into the underlying
// storage; callers that retain results past the buffer's lifetime must Clone.
//
// Invariant: 0 <= cursor <= Len().
type Reader struct {
	buf    *bytebuf.Buffer
	cursor int
}

// NewReader reads from buf starting at offset 0. A nil buf reads as empty.
func NewReader(buf *bytebuf.Buffer) *Reader {
	if buf == nil {
		buf = bytebuf.Wrap(nil)
	}
	return &Reader{buf: buf}
}

// NewReaderBytes reads from b without copying.
func NewReaderBytes(b []byte) *Reader {
	return NewReader(bytebuf.Wrap(b))
}

// Len is the size of the underlying buffer.
func (r *Reader) Len() int { return r.buf.Len() }

// Offset is the cursor position.
func (r *Reader) Offset() int { return r.cursor }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return r.buf.Len() - r.cursor }

// Exhausted reports whether every byte has been read.
func (r *Reader) Exhausted() bool {
	return r.cursor >= r.buf.Len()
}

func (r *Reader) span(n int) (*bytebuf.Buffer, error) {
	if n < 0 {
		return nil, faults.New(faults.OutOfBounds, "binproto: negative read length").With("n", n)
	}
	if n == 0 {
		return r.buf.Subarray(r.cursor, r.cursor)
	}
	if r.Exhausted() {
		return nil, faults.New(faults.ReaderExhausted, "binproto: reader exhausted").With("offset", r.cursor)
	}
	if n > r.Remaining() {
		return nil, faults.New(faults.Truncated, "binproto: short read").
			With("offset", r.cursor).With("want", n).With("have", r.Remaining())
	}
	return r.buf.Subarray(r.cursor, r.cursor+n)
}

// Read consumes n bytes and returns them as a view. A zero-length read always
// succeeds; any other read on an exhausted reader fails.
func (r *Reader) Read(n int) (*bytebuf.Buffer, error) {
	out, err := r.span(n)
	if err != nil {
		return nil, err
	}
	r.cursor += n
	return out, nil
}

// ReadAll consumes the remainder.
func (r *Reader) ReadAll() (*bytebuf.Buffer, error) {
	if r.Exhausted() {
		return nil, faults.New(faults.ReaderExhausted, "binproto: reader exhausted").With("offset", r.cursor)
	}
	return r.Read(r.Remaining())
}

// Peek returns the next n bytes without advancing.
func (r *Reader) Peek(n int) (*bytebuf.Buffer, error) {
	return r.span(n)
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if r.Exhausted() {
		return 0, faults.New(faults.ReaderExhausted, "binproto: reader exhausted").With("offset", r.cursor)
	}
	c, err := r.buf.At(r.cursor)
	if err != nil {
		return 0, err
	}
	r.cursor++
	return c, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.Read(n)
	return err
}
