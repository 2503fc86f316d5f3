package binproto

import (
	"math"
	"strconv"

	"xdao.co/sealkit/bytebuf"
	"xdao.co/sealkit/faults"
)

// MaxDepth bounds Array nesting on decode.
const MaxDepth = 64

// Encode writes v to w in the inline format. On error w is left as it was
// before the call.
func Encode(w *Writer, v Value) error {
	m := w.mark()
	if err := encode(w, v, 0); err != nil {
		w.reset(m)
		return err
	}
	return nil
}

func encode(w *Writer, v Value, depth int) error {
	if v == nil {
		v = Null{}
	}
	if depth > MaxDepth {
		return faults.New(faults.NestingDepth, "binproto: nesting too deep").With("depth", depth)
	}
	_ = w.WriteByte(byte(v.Tag()))

	switch x := v.(type) {
	case Null:
		return nil
	case String:
		return writeSized(w, []byte(x))
	case Uint32:
		w.WriteVQL(uint32(x))
		return nil
	case Int64:
		return writeInt64(w, x)
	case Float64:
		return writeSized(w, []byte(formatFloat(float64(x))))
	case Object:
		return writeSized(w, x.JSON)
	case Array:
		if uint64(len(x)) > math.MaxUint32 {
			return faults.New(faults.VQLOverflow, "binproto: array too long").With("count", len(x))
		}
		w.WriteVQL(uint32(len(x)))
		for _, elem := range x {
			if err := encode(w, elem, depth+1); err != nil {
				return err
			}
		}
		return nil
	case Binary:
		return writeSized(w, x)
	default:
		return faults.Newf(faults.UnsupportedValue, "binproto: unsupported value %T", v)
	}
}

func writeSized(w *Writer, b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return faults.New(faults.VQLOverflow, "binproto: payload too long").With("length", len(b))
	}
	w.WriteVQL(uint32(len(b)))
	w.WriteBuffer(bytebuf.FromBytes(b))
	return nil
}

func writeInt64(w *Writer, v Int64) error {
	buf, _ := bytebuf.New(8)
	if v.V != nil && v.V.Sign() < 0 {
		if err := buf.WriteInt64BE(0, v.V); err != nil {
			return err
		}
		w.WriteVQL(1)
	} else {
		if err := buf.WriteUint64BE(0, v.V); err != nil {
			return err
		}
		w.WriteVQL(0)
	}
	w.WriteBuffer(buf)
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Decode reads one value at r's cursor.
func Decode(r *Reader) (Value, error) {
	return decode(r, 0)
}

func decode(r *Reader, depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, faults.New(faults.NestingDepth, "binproto: nesting too deep").With("depth", depth)
	}
	start := r.Offset()
	t, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch Tag(t) {
	case TagNull:
		return Null{}, nil
	case TagString:
		b, err := readSized(r)
		if err != nil {
			return nil, err
		}
		return String(b), nil
	case TagUint32:
		v, err := ReadVQL(r)
		if err != nil {
			return nil, err
		}
		return Uint32(v), nil
	case TagInt64:
		return readInt64(r)
	case TagFloat64:
		b, err := readSized(r)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return nil, faults.Wrap(faults.UnsupportedValue, "binproto: invalid float text", err).With("offset", start)
		}
		return Float64(f), nil
	case TagObject:
		b, err := readSized(r)
		if err != nil {
			return nil, err
		}
		return Object{JSON: b}, nil
	case TagArray:
		n, err := ReadVQL(r)
		if err != nil {
			return nil, err
		}
		// Every element takes at least one byte; cap the preallocation so a
		// hostile count cannot force a huge allocation.
		hint := int(n)
		if hint > r.Remaining() {
			hint = r.Remaining()
		}
		out := make(Array, 0, hint)
		for i := uint32(0); i < n; i++ {
			elem, err := decode(r, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case TagBinary:
		b, err := readSized(r)
		if err != nil {
			return nil, err
		}
		return Binary(b), nil
	default:
		return nil, faults.New(faults.UnknownTag, "binproto: unknown value tag").
			With("tag", t).With("offset", start)
	}
}

// readSized reads a VQL length and that many bytes, returning a copy.
func readSized(r *Reader) ([]byte, error) {
	n, err := ReadVQL(r)
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.Remaining()) {
		return nil, faults.New(faults.Truncated, "binproto: length prefix exceeds input").
			With("offset", r.Offset()).With("want", n).With("have", r.Remaining())
	}
	span, err := r.Read(int(n))
	if err != nil {
		return nil, err
	}
	return span.Clone().Bytes(), nil
}

func readInt64(r *Reader) (Value, error) {
	flag, err := ReadVQL(r)
	if err != nil {
		return nil, err
	}
	span, err := r.Read(8)
	if err != nil {
		return nil, err
	}
	switch flag {
	case 0:
		v, err := span.ReadUint64BE(0)
		if err != nil {
			return nil, err
		}
		return Int64{V: v}, nil
	case 1:
		v, err := span.ReadInt64BE(0)
		if err != nil {
			return nil, err
		}
		return Int64{V: v}, nil
	default:
		return nil, faults.New(faults.UnsupportedValue, "binproto: invalid int64 sign flag").With("flag", flag)
	}
}

// Result is the non-raising outcome of TryDecode: exactly one of Value and
// Err is set.
type Result struct {
	Value Value
	Err   error
}

func (r Result) OK() bool { return r.Err == nil }

// TryDecode is Decode returning a Result instead of an error. On failure the
// reader's cursor is restored.
func TryDecode(r *Reader) Result {
	mark := r.cursor
	v, err := Decode(r)
	if err != nil {
		r.cursor = mark
		return Result{Err: err}
	}
	return Result{Value: v}
}

// Marshal encodes v into a fresh byte slice.
func Marshal(v Value) ([]byte, error) {
	w := NewWriter()
	if err := Encode(w, v); err != nil {
		return nil, err
	}
	return w.Drain().Bytes(), nil
}

// Unmarshal decodes exactly one value from b; trailing bytes are an error.
func Unmarshal(b []byte) (Value, error) {
	r := NewReaderBytes(b)
	v, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if !r.Exhausted() {
		return nil, faults.New(faults.TrailingBytes, "binproto: trailing bytes after value").
			With("offset", r.Offset()).With("remaining", r.Remaining())
	}
	return v, nil
}
