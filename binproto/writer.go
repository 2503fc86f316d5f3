package binproto

import (
	"xdao.co/sealkit/bytebuf"
)

// Writer accumulates owned segments and concatenates them on Drain.
type Writer struct {
	segments []*bytebuf.Buffer
	total    int
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

type writerMark struct{ segments, total int }

func (w *Writer) mark() writerMark { return writerMark{len(w.segments), w.total} }

// reset drops every segment written after m.
func (w *Writer) reset(m writerMark) {
	clear(w.segments[m.segments:])
	w.segments = w.segments[:m.segments]
	w.total = m.total
}

// Len is the running byte total of all pending segments.
func (w *Writer) Len() int { return w.total }

// WriteBuffer appends b as a segment without copying. b must not be mutated
// until the writer is drained.
func (w *Writer) WriteBuffer(b *bytebuf.Buffer) {
	if b == nil || b.Len() == 0 {
		return
	}
	w.segments = append(w.segments, b)
	w.total += b.Len()
}

// Write implements io.Writer. p is copied.
func (w *Writer) Write(p []byte) (int, error) {
	w.WriteBuffer(bytebuf.FromBytes(p))
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (w *Writer) WriteByte(c byte) error {
	w.WriteBuffer(bytebuf.Wrap([]byte{c}))
	return nil
}

// WriteVQL appends v as a VQL varint.
func (w *Writer) WriteVQL(v uint32) {
	w.WriteBuffer(bytebuf.Wrap(AppendVQL(make([]byte, 0, VQLLen(v)), v)))
}

// Drain concatenates every segment into one owned buffer and resets w.
func (w *Writer) Drain() *bytebuf.Buffer {
	out := bytebuf.Concat(w.segments...)
	w.segments = nil
	w.total = 0
	return out
}

// DrainString drains w and renders the result with enc.
func (w *Writer) DrainString(enc bytebuf.Encoding) (string, error) {
	return w.Drain().ToString(enc)
}
