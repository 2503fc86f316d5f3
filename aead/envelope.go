package aead

import (
	"bytes"
	"math"

	"xdao.co/sealkit/binproto"
	"xdao.co/sealkit/faults"
)

const (
	// Magic opens every envelope.
	Magic = "XDAO-SEALKIT-AE\x01"
	// Version is the envelope protocol version.
	Version uint32 = 1

	OptionSingle  byte = 0x01
	OptionLayered byte = 0x02

	endMarker uint32 = 0xAE0D
)

// Envelope is one parsed single-layer envelope. Byte fields are stored as they
// appear on the wire, masked if the sender masked them.
type Envelope struct {
	Version   uint32
	Algorithm Algorithm
	KeyLen    int
	HeaderIV  []byte
	HeaderCT  []byte
	HeaderTag []byte
	DataIV    []byte
	DataCT    []byte
	DataTag   []byte
}

func (e *Envelope) MarshalBinary() ([]byte, error) {
	if e.KeyLen < 0 || e.KeyLen > math.MaxUint32 {
		return nil, faults.New(faults.InvalidKeyLength, "key length out of range").With("size", e.KeyLen)
	}
	w := binproto.NewWriter()
	_, _ = w.Write([]byte(Magic))
	_ = w.WriteByte(OptionSingle)
	fields := []binproto.Value{
		binproto.Uint32(e.Version),
		binproto.Uint32(e.Algorithm),
		binproto.Uint32(e.KeyLen),
		binproto.Binary(e.HeaderIV),
		binproto.Binary(e.HeaderCT),
		binproto.Binary(e.HeaderTag),
		binproto.Binary(e.DataIV),
		binproto.Binary(e.DataCT),
		binproto.Binary(e.DataTag),
		binproto.Uint32(endMarker),
	}
	for _, f := range fields {
		if err := binproto.Encode(w, f); err != nil {
			return nil, err
		}
	}
	return w.Drain().Bytes(), nil
}

func marshalLayered(count int, outer []byte) []byte {
	out := make([]byte, 0, len(Magic)+2+len(outer))
	out = append(out, Magic...)
	out = append(out, OptionLayered, byte(count))
	return append(out, outer...)
}

// splitMagic validates the magic prefix and returns the option byte and the
// bytes after it.
func splitMagic(b []byte) (byte, []byte, error) {
	if len(b) < len(Magic)+1 || !bytes.Equal(b[:len(Magic)], []byte(Magic)) {
		return 0, nil, faults.New(faults.BadMagic, "envelope magic mismatch").With("size", len(b))
	}
	return b[len(Magic)], b[len(Magic)+1:], nil
}

// ParseEnvelope parses a single-layer envelope without decrypting it.
// Layered envelopes are rejected with UnsupportedLayered.
func ParseEnvelope(b []byte) (*Envelope, error) {
	opt, rest, err := splitMagic(b)
	if err != nil {
		return nil, err
	}
	switch opt {
	case OptionSingle:
		return parseBody(rest)
	case OptionLayered:
		return nil, faults.New(faults.UnsupportedLayered, "layered envelopes cannot be opened")
	default:
		return nil, faults.New(faults.MalformedEnvelope, "unknown envelope option").With("option", opt)
	}
}

func readField[T binproto.Value](r *binproto.Reader, name string) (T, error) {
	var zero T
	v, err := binproto.Decode(r)
	if err != nil {
		return zero, faults.Wrap(faults.MalformedEnvelope, "cannot decode envelope field", err).With("field", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, faults.New(faults.MalformedEnvelope, "unexpected envelope field type").
			With("field", name).With("tag", v.Tag().String())
	}
	return t, nil
}

func parseBody(body []byte) (*Envelope, error) {
	r := binproto.NewReaderBytes(body)

	version, err := readField[binproto.Uint32](r, "version")
	if err != nil {
		return nil, err
	}
	if uint32(version) != Version {
		return nil, faults.New(faults.UnsupportedVersion, "unsupported envelope version").
			With("version", uint32(version)).With("want", Version)
	}
	agid, err := readField[binproto.Uint32](r, "agid")
	if err != nil {
		return nil, err
	}
	if agid > 0xFF {
		return nil, faults.New(faults.UnknownMode, "algorithm id out of range").With("agid", uint32(agid))
	}
	keyLen, err := readField[binproto.Uint32](r, "keylen")
	if err != nil {
		return nil, err
	}

	env := &Envelope{Version: uint32(version), Algorithm: Algorithm(agid), KeyLen: int(keyLen)}
	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{"header_iv", &env.HeaderIV},
		{"header_ct", &env.HeaderCT},
		{"header_tag", &env.HeaderTag},
		{"data_iv", &env.DataIV},
		{"data_ct", &env.DataCT},
		{"data_tag", &env.DataTag},
	} {
		v, err := readField[binproto.Binary](r, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = []byte(v)
	}

	end, err := readField[binproto.Uint32](r, "end")
	if err != nil {
		return nil, err
	}
	if uint32(end) != endMarker {
		return nil, faults.New(faults.MalformedEnvelope, "bad end marker").With("end", uint32(end))
	}
	if !r.Exhausted() {
		return nil, faults.New(faults.MalformedEnvelope, "trailing bytes after end marker").With("remaining", r.Remaining())
	}
	return env, nil
}

// Info summarises an envelope without decrypting it.
type Info struct {
	Option    byte      `json:"option"`
	Layers    int       `json:"layers"`
	Version   uint32    `json:"version"`
	Algorithm Algorithm `json:"agid"`
	Mode      string    `json:"mode"`
	KeyLen    int       `json:"key_len"`
	IVLen     int       `json:"iv_len"`
	DataLen   int       `json:"data_len"`
	Size      int       `json:"size"`
}

// Inspect reports the framing of a single or layered envelope. For layered
// envelopes the fields describe the outermost layer.
func Inspect(b []byte) (*Info, error) {
	opt, rest, err := splitMagic(b)
	if err != nil {
		return nil, err
	}
	info := &Info{Option: opt, Layers: 1, Size: len(b)}
	switch opt {
	case OptionSingle:
	case OptionLayered:
		if len(rest) < 1 {
			return nil, faults.New(faults.MalformedEnvelope, "layered envelope missing layer count")
		}
		info.Layers = int(rest[0])
		if info.Layers < MinLayers || info.Layers > MaxLayers {
			return nil, faults.New(faults.MalformedEnvelope, "layer count out of range").With("layers", info.Layers)
		}
		inner, innerRest, err := splitMagic(rest[1:])
		if err != nil {
			return nil, err
		}
		if inner != OptionSingle {
			return nil, faults.New(faults.MalformedEnvelope, "layered envelope must wrap a single envelope").With("option", inner)
		}
		rest = innerRest
	default:
		return nil, faults.New(faults.MalformedEnvelope, "unknown envelope option").With("option", opt)
	}

	env, err := parseBody(rest)
	if err != nil {
		return nil, err
	}
	info.Version = env.Version
	info.Algorithm = env.Algorithm
	info.Mode = Mode{env.Algorithm}.Name()
	info.KeyLen = env.KeyLen
	info.IVLen = len(env.DataIV)
	info.DataLen = len(env.DataCT)
	return info, nil
}
