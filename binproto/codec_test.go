package binproto

import (
	"math"
	"math/big"
	"reflect"
	"testing"

	"xdao.co/sealkit/faults"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	b, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal(%#v): %v", v, err)
	}
	out, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal(%x): %v", b, err)
	}
	return out
}

func TestRoundTripScalars(t *testing.T) {
	cases := []Value{
		Null{},
		String(""),
		String("héllo, sealkit"),
		Uint32(0),
		Uint32(math.MaxUint32),
		Float64(0),
		Float64(-1.25),
		Float64(math.Pi),
		Float64(1e300),
		Float64(math.SmallestNonzeroFloat64),
		Binary{0, 1, 2, 0xff},
		Object{JSON: []byte(`{"k":[1,2,3]}`)},
	}
	for _, v := range cases {
		if got := roundTrip(t, v); !reflect.DeepEqual(got, v) {
			t.Fatalf("round trip %#v -> %#v", v, got)
		}
	}
}

func TestRoundTripInt64(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(-1),
		big.NewInt(math.MinInt64),
		big.NewInt(math.MaxInt64),
		new(big.Int).SetUint64(math.MaxUint64),
	}
	for _, want := range cases {
		got := roundTrip(t, Int64{V: want})
		i, ok := got.(Int64)
		if !ok || i.V.Cmp(want) != 0 {
			t.Fatalf("round trip %s -> %#v", want, got)
		}
	}
	if _, err := Marshal(Int64{V: new(big.Int).Lsh(big.NewInt(1), 64)}); !faults.Is(err, faults.IntegerRange) {
		t.Fatalf("expected IntegerRange, got %v", err)
	}
}

func TestFailedEncodeLeavesWriterUnchanged(t *testing.T) {
	w := NewWriter()
	if err := Encode(w, String("ok")); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	before := w.Len()

	tooBig := Int64{V: new(big.Int).Lsh(big.NewInt(1), 64)}
	for _, bad := range []Value{
		tooBig,
		Array{Uint32(1), String("x"), Array{tooBig}},
	} {
		if err := Encode(w, bad); err == nil {
			t.Fatalf("expected Encode(%T) to fail", bad)
		}
		if w.Len() != before {
			t.Fatalf("Len=%d after failed Encode, want %d", w.Len(), before)
		}
	}
	if err := Encode(w, Uint32(9)); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	r := NewReaderBytes(w.Drain().Bytes())
	for _, want := range []Value{String("ok"), Uint32(9)} {
		v, err := Decode(r)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if v != want {
			t.Fatalf("decoded %#v want %#v", v, want)
		}
	}
	if !r.Exhausted() {
		t.Fatalf("unexpected trailing bytes")
	}
}

func TestRoundTripNestedArray(t *testing.T) {
	v := Array{
		Null{},
		String("a"),
		Array{Uint32(1), Binary{9}},
		Array{},
	}
	got := roundTrip(t, v)
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("round trip %#v -> %#v", v, got)
	}
}

func TestEmptyBinaryAtEndOfInput(t *testing.T) {
	got := roundTrip(t, Binary{})
	if b, ok := got.(Binary); !ok || len(b) != 0 {
		t.Fatalf("expected empty Binary, got %#v", got)
	}
}

func TestValueOf(t *testing.T) {
	cases := []struct {
		in   any
		want Tag
	}{
		{nil, TagNull},
		{"s", TagString},
		{7, TagUint32},
		{int64(math.MaxInt32), TagUint32},
		{int64(math.MaxInt32) + 1, TagInt64},
		{-1, TagInt64},
		{uint64(math.MaxUint64), TagInt64},
		{uint32(math.MaxInt32), TagUint32},
		{uint32(3_000_000_000), TagInt64},
		{uint32(math.MaxUint32), TagInt64},
		{2.5, TagFloat64},
		{[]byte{1}, TagBinary},
		{[]string{"a", "b"}, TagArray},
		{map[string]int{"a": 1}, TagObject},
		{true, TagObject},
	}
	for _, tc := range cases {
		v, err := ValueOf(tc.in)
		if err != nil {
			t.Fatalf("ValueOf(%#v): %v", tc.in, err)
		}
		if v.Tag() != tc.want {
			t.Fatalf("ValueOf(%#v) tag %s want %s", tc.in, v.Tag(), tc.want)
		}
	}

	obj, _ := ValueOf(map[string]int{"a": 1})
	var m map[string]int
	if err := roundTrip(t, obj).(Object).Decode(&m); err != nil || m["a"] != 1 {
		t.Fatalf("object decode: %v %v", m, err)
	}
}

func TestValueOfRejectsOpaqueValues(t *testing.T) {
	if _, err := ValueOf(map[string]any{"ch": make(chan int)}); !faults.Is(err, faults.UnsupportedValue) {
		t.Fatalf("expected UnsupportedValue, got %v", err)
	}
	if _, err := ValueOf(new(big.Int).Lsh(big.NewInt(1), 64)); !faults.Is(err, faults.IntegerRange) {
		t.Fatalf("expected IntegerRange, got %v", err)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Unmarshal([]byte{0x7f})
	if !faults.Is(err, faults.UnknownTag) {
		t.Fatalf("expected UnknownTag, got %v", err)
	}
	if !faults.IsKind(err, faults.KindInvalidType) {
		t.Fatalf("expected KindInvalidType")
	}
}

func TestDecodeTruncatedAndTrailing(t *testing.T) {
	if _, err := Unmarshal([]byte{byte(TagBinary), 4, 1, 2}); !faults.Is(err, faults.Truncated) {
		t.Fatalf("expected Truncated, got %v", err)
	}
	if _, err := Unmarshal([]byte{byte(TagNull), 0}); !faults.Is(err, faults.TrailingBytes) {
		t.Fatalf("expected TrailingBytes, got %v", err)
	}
	if _, err := Unmarshal([]byte{byte(TagInt64), 2, 0, 0, 0, 0, 0, 0, 0, 0}); !faults.Is(err, faults.UnsupportedValue) {
		t.Fatalf("expected UnsupportedValue for bad sign flag, got %v", err)
	}
}

func TestDecodeNestingLimit(t *testing.T) {
	b := make([]byte, 0, 2*(MaxDepth+2))
	for i := 0; i < MaxDepth+2; i++ {
		b = append(b, byte(TagArray), 1)
	}
	b = append(b, byte(TagNull))
	if _, err := Unmarshal(b); !faults.Is(err, faults.NestingDepth) {
		t.Fatalf("expected NestingDepth, got %v", err)
	}
}

func TestTryDecode(t *testing.T) {
	r := NewReaderBytes([]byte{0x7f})
	res := TryDecode(r)
	if res.OK() || res.Value != nil || !faults.Is(res.Err, faults.UnknownTag) {
		t.Fatalf("unexpected result %#v", res)
	}
	if r.Offset() != 0 {
		t.Fatalf("TryDecode must restore the cursor on failure")
	}

	r = NewReaderBytes([]byte{byte(TagUint32), 5})
	res = TryDecode(r)
	if !res.OK() || res.Value != Uint32(5) {
		t.Fatalf("unexpected result %#v", res)
	}
}
