package bytebuf

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"xdao.co/sealkit/faults"
)

// Encoding selects a text codec for FromString and ToString.
type Encoding uint8

const (
	Hex Encoding = 1 << iota
	Base64
	Latin1
	UTF8
	UTF16LE
)

func (e Encoding) String() string {
	switch e {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	case Latin1:
		return "latin1"
	case UTF8:
		return "utf8"
	case UTF16LE:
		return "utf16le"
	default:
		return "unknown"
	}
}

// ParseEncoding resolves a codec name. Names are case-insensitive and accept
// the usual aliases ("utf-8", "binary", "ucs2", ...).
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hex":
		return Hex, nil
	case "base64":
		return Base64, nil
	case "latin1", "binary", "iso-8859-1":
		return Latin1, nil
	case "utf8", "utf-8":
		return UTF8, nil
	case "utf16le", "utf-16le", "ucs2", "ucs-2":
		return UTF16LE, nil
	default:
		return 0, faults.Newf(faults.UnknownEncoding, "bytebuf: unknown encoding %q", name)
	}
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func encodeText(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case Hex:
		b, err := hex.DecodeString(text)
		if err != nil {
			return nil, faults.Wrap(faults.TextDecode, "bytebuf: invalid hex", err)
		}
		return b, nil
	case Base64:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			b, err = base64.RawStdEncoding.DecodeString(text)
		}
		if err != nil {
			return nil, faults.Wrap(faults.TextDecode, "bytebuf: invalid base64", err)
		}
		return b, nil
	case UTF8:
		return []byte(text), nil
	case Latin1:
		b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, faults.Wrap(faults.TextDecode, "bytebuf: text not representable in latin1", err)
		}
		return b, nil
	case UTF16LE:
		b, err := utf16le.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, faults.Wrap(faults.TextDecode, "bytebuf: utf16le encode failed", err)
		}
		return b, nil
	default:
		return nil, faults.New(faults.UnknownEncoding, "bytebuf: unknown encoding").With("encoding", uint8(enc))
	}
}

func decodeText(b []byte, enc Encoding) (string, error) {
	switch enc {
	case Hex:
		return hex.EncodeToString(b), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(b), nil
	case UTF8:
		if utf8.Valid(b) {
			return string(b), nil
		}
		return strings.ToValidUTF8(string(b), "\uFFFD"), nil
	case Latin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			return "", faults.Wrap(faults.TextDecode, "bytebuf: latin1 decode failed", err)
		}
		return string(out), nil
	case UTF16LE:
		if len(b)%2 != 0 {
			return "", faults.New(faults.TextDecode, "bytebuf: odd utf16le byte length").With("length", len(b))
		}
		out, err := utf16le.NewDecoder().Bytes(b)
		if err != nil {
			return "", faults.Wrap(faults.TextDecode, "bytebuf: utf16le decode failed", err)
		}
		return string(out), nil
	default:
		return "", faults.New(faults.UnknownEncoding, "bytebuf: unknown encoding").With("encoding", uint8(enc))
	}
}
