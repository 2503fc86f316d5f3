package binproto

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"reflect"

	"xdao.co/sealkit/bytebuf"
	"xdao.co/sealkit/faults"
)

// Tag identifies a Value variant on the wire.
type Tag byte

const (
	TagNull    Tag = 0x00
	TagString  Tag = 0x01
	TagUint32  Tag = 0x02
	TagInt64   Tag = 0x03
	TagFloat64 Tag = 0x04
	TagObject  Tag = 0x05
	TagArray   Tag = 0x06
	TagBinary  Tag = 0x07
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagString:
		return "string"
	case TagUint32:
		return "uint32"
	case TagInt64:
		return "int64"
	case TagFloat64:
		return "float64"
	case TagObject:
		return "object"
	case TagArray:
		return "array"
	case TagBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Value is the closed set of serializable values. Only the types in this
// package implement it.
type Value interface {
	Tag() Tag
	sealed()
}

type (
	Null    struct{}
	String  string
	Uint32  uint32
	Float64 float64
	Array   []Value
	Binary  []byte
)

// Int64 carries any integer in [-2^63, 2^64-1]. Negative values travel as
// two's complement, non-negative values as unsigned.
type Int64 struct {
	V *big.Int
}

// Object is opaque JSON text.
type Object struct {
	JSON []byte
}

// NewInt64 and NewUint64 wrap native integers as Int64.
func NewInt64(v int64) Int64   { return Int64{V: big.NewInt(v)} }
func NewUint64(v uint64) Int64 { return Int64{V: new(big.Int).SetUint64(v)} }

// Decode unmarshals the JSON text into v.
func (o Object) Decode(v any) error { return json.Unmarshal(o.JSON, v) }

func (Null) Tag() Tag    { return TagNull }
func (String) Tag() Tag  { return TagString }
func (Uint32) Tag() Tag  { return TagUint32 }
func (Int64) Tag() Tag   { return TagInt64 }
func (Float64) Tag() Tag { return TagFloat64 }
func (Object) Tag() Tag  { return TagObject }
func (Array) Tag() Tag   { return TagArray }
func (Binary) Tag() Tag  { return TagBinary }

func (Null) sealed()    {}
func (String) sealed()  {}
func (Uint32) sealed()  {}
func (Int64) sealed()   {}
func (Float64) sealed() {}
func (Object) sealed()  {}
func (Array) sealed()   {}
func (Binary) sealed()  {}

// ValueOf maps a Go value onto the closed Value set.
//
// Integers in [0, MaxInt32] become Uint32; every other integer becomes Int64.
// Byte slices and buffers become Binary, other slices and arrays become
// Array, and anything else (maps, structs, bools) is stringified into Object.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case uint32:
		return uintValue(uint64(x)), nil
	case int:
		return intValue(int64(x)), nil
	case int8:
		return intValue(int64(x)), nil
	case int16:
		return intValue(int64(x)), nil
	case int32:
		return intValue(int64(x)), nil
	case int64:
		return intValue(x), nil
	case uint:
		return uintValue(uint64(x)), nil
	case uint8:
		return Uint32(x), nil
	case uint16:
		return uintValue(uint64(x)), nil
	case uint64:
		return uintValue(x), nil
	case *big.Int:
		if x == nil {
			return Null{}, nil
		}
		if x.Sign() < 0 {
			if _, err := bytebuf.CheckInt64(x); err != nil {
				return nil, err
			}
		} else if _, err := bytebuf.CheckUint64(x); err != nil {
			return nil, err
		}
		return Int64{V: new(big.Int).Set(x)}, nil
	case float32:
		return Float64(x), nil
	case float64:
		return Float64(x), nil
	case []byte:
		return Binary(x), nil
	case *bytebuf.Buffer:
		return Binary(x.Bytes()), nil
	case json.RawMessage:
		return Object{JSON: x}, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make(Array, rv.Len())
		for i := range out {
			elem, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}

	b, err := stringify(v)
	if err != nil {
		return nil, err
	}
	return Object{JSON: b}, nil
}

func intValue(v int64) Value {
	if v >= 0 && v <= math.MaxInt32 {
		return Uint32(uint32(v))
	}
	return NewInt64(v)
}

func uintValue(v uint64) Value {
	if v <= math.MaxInt32 {
		return Uint32(uint32(v))
	}
	return NewUint64(v)
}

// stringify renders v as JSON, rejecting cycles and values with no JSON form
// (channels, functions, complex numbers) as UnsupportedValue.
func stringify(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err == nil {
		return b, nil
	}
	var typeErr *json.UnsupportedTypeError
	var valueErr *json.UnsupportedValueError
	switch {
	case errors.As(err, &typeErr), errors.As(err, &valueErr):
		return nil, faults.Wrap(faults.UnsupportedValue, "binproto: value has no JSON form", err)
	default:
		return nil, faults.Wrap(faults.UnsupportedValue, "binproto: object stringify failed", err)
	}
}
