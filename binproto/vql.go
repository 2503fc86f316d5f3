package binproto

import "xdao.co/sealkit/faults"

// MaxVQLLen is the longest VQL encoding of a uint32.
const MaxVQLLen = 5

// AppendVQL appends the VQL encoding of v to dst: base-128, least significant
// group first, high bit set on every byte except the last.
func AppendVQL(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// VQLLen returns the encoded size of v.
func VQLLen(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeVQL decodes a VQL value from the front of b and reports how many bytes
// it consumed.
func DecodeVQL(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < MaxVQLLen; i++ {
		if i >= len(b) {
			return 0, 0, faults.New(faults.Truncated, "binproto: truncated vql").With("consumed", i)
		}
		c := b[i]
		if i == MaxVQLLen-1 && c > 0x0F {
			return 0, 0, faults.New(faults.VQLOverflow, "binproto: vql exceeds 32 bits")
		}
		v |= uint32(c&0x7F) << (7 * i)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, faults.New(faults.VQLOverflow, "binproto: vql exceeds 32 bits")
}

// ReadVQL decodes one VQL value at r's cursor.
func ReadVQL(r *Reader) (uint32, error) {
	var v uint32
	for i := 0; i < MaxVQLLen; i++ {
		c, err := r.ReadByte()
		if err != nil {
			if i > 0 {
				return 0, faults.Wrap(faults.Truncated, "binproto: truncated vql", err)
			}
			return 0, err
		}
		if i == MaxVQLLen-1 && c > 0x0F {
			return 0, faults.New(faults.VQLOverflow, "binproto: vql exceeds 32 bits").With("offset", r.Offset()-1)
		}
		v |= uint32(c&0x7F) << (7 * i)
		if c&0x80 == 0 {
			return v, nil
		}
	}
	return 0, faults.New(faults.VQLOverflow, "binproto: vql exceeds 32 bits")
}
