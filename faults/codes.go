package faults

import "strconv"

// Code is a stable numeric identifier for one failure condition.
//
// Ranges: 1xx byte buffers, 2xx binary protocol, 3xx envelope engine,
// 4xx key material.
type Code uint16

const (
	NegativeLength  Code = 101
	InvalidSource   Code = 102
	OutOfBounds     Code = 103
	IntegerRange    Code = 104
	UnknownEncoding Code = 105
	TextDecode      Code = 106

	UnknownTag       Code = 201
	ReaderExhausted  Code = 202
	Truncated        Code = 203
	VQLOverflow      Code = 204
	UnsupportedValue Code = 205
	TrailingBytes    Code = 206
	NestingDepth     Code = 207

	UnknownMode        Code = 301
	InvalidKeyLength   Code = 302
	KeyLengthMismatch  Code = 303
	KeyUnavailable     Code = 304
	IVLength           Code = 305
	BadMagic           Code = 306
	UnsupportedVersion Code = 307
	UnsupportedLayered Code = 308
	MalformedEnvelope  Code = 309
	AuthFailed         Code = 310
	InvalidMask        Code = 311

	Released       Code = 401
	InvalidKeyName Code = 402
	UnsupportedAlg Code = 403
)

var codeKinds = map[Code]Kind{
	NegativeLength:  KindInvalidArgument,
	InvalidSource:   KindInvalidType,
	OutOfBounds:     KindOutOfBounds,
	IntegerRange:    KindOutOfRange,
	UnknownEncoding: KindInvalidArgument,
	TextDecode:      KindInvalidArgument,

	UnknownTag:       KindInvalidType,
	ReaderExhausted:  KindOutOfBounds,
	Truncated:        KindOutOfBounds,
	VQLOverflow:      KindOutOfRange,
	UnsupportedValue: KindInvalidType,
	TrailingBytes:    KindMalformed,
	NestingDepth:     KindOutOfRange,

	UnknownMode:        KindInvalidArgument,
	InvalidKeyLength:   KindInvalidKeyLength,
	KeyLengthMismatch:  KindInvalidKeyLength,
	KeyUnavailable:     KindInvalidArgument,
	IVLength:           KindInvalidArgument,
	BadMagic:           KindMalformed,
	UnsupportedVersion: KindUnsupported,
	UnsupportedLayered: KindUnsupported,
	MalformedEnvelope:  KindMalformed,
	AuthFailed:         KindAuthentication,
	InvalidMask:        KindInvalidArgument,

	Released:       KindReleased,
	InvalidKeyName: KindInvalidArgument,
	UnsupportedAlg: KindUnsupported,
}

// Kind returns the category a code belongs to.
func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindInvalidArgument
}

func (c Code) String() string {
	return "SK-" + strconv.Itoa(int(c))
}
