package bytebuf

import (
	"math"
	"math/big"

	"xdao.co/sealkit/faults"
)

var (
	minInt64  = big.NewInt(math.MinInt64)
	maxInt64  = big.NewInt(math.MaxInt64)
	maxUint64 = new(big.Int).SetUint64(math.MaxUint64)
)

// ReadUint8 returns the byte at offset.
func (b *Buffer) ReadUint8(offset int) (uint8, error) {
	return b.At(offset)
}

// WriteUint8 stores v at offset.
func (b *Buffer) WriteUint8(offset int, v uint8) error {
	return b.SetAt(offset, v)
}

// ReadUint16BE reads a big-endian uint16 at offset.
func (b *Buffer) ReadUint16BE(offset int) (uint16, error) {
	if err := b.check(offset, 2); err != nil {
		return 0, err
	}
	p := b.data[b.off+offset:]
	return uint16(p[0])<<8 | uint16(p[1]), nil
}

// ReadUint16LE is the little-endian form of ReadUint16BE.
func (b *Buffer) ReadUint16LE(offset int) (uint16, error) {
	if err := b.check(offset, 2); err != nil {
		return 0, err
	}
	p := b.data[b.off+offset:]
	return uint16(p[1])<<8 | uint16(p[0]), nil
}

// WriteUint16BE stores v big-endian at offset.
func (b *Buffer) WriteUint16BE(offset int, v uint16) error {
	if err := b.check(offset, 2); err != nil {
		return err
	}
	p := b.data[b.off+offset:]
	p[0] = byte(v >> 8)
	p[1] = byte(v)
	return nil
}

// WriteUint16LE stores v little-endian at offset.
func (b *Buffer) WriteUint16LE(offset int, v uint16) error {
	if err := b.check(offset, 2); err != nil {
		return err
	}
	p := b.data[b.off+offset:]
	p[0] = byte(v)
	p[1] = byte(v >> 8)
	return nil
}

// ReadUint32BE reads a big-endian uint32 at offset.
func (b *Buffer) ReadUint32BE(offset int) (uint32, error) {
	if err := b.check(offset, 4); err != nil {
		return 0, err
	}
	p := b.data[b.off+offset:]
	return uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8 | uint32(p[3]), nil
}

// ReadUint32LE is the little-endian form of ReadUint32BE.
func (b *Buffer) ReadUint32LE(offset int) (uint32, error) {
	if err := b.check(offset, 4); err != nil {
		return 0, err
	}
	p := b.data[b.off+offset:]
	return uint32(p[3])<<24 | uint32(p[2])<<16 | uint32(p[1])<<8 | uint32(p[0]), nil
}

// WriteUint32BE stores v big-endian at offset.
func (b *Buffer) WriteUint32BE(offset int, v uint32) error {
	if err := b.check(offset, 4); err != nil {
		return err
	}
	p := b.data[b.off+offset:]
	p[0] = byte(v >> 24)
	p[1] = byte(v >> 16)
	p[2] = byte(v >> 8)
	p[3] = byte(v)
	return nil
}

// WriteUint32LE stores v little-endian at offset.
func (b *Buffer) WriteUint32LE(offset int, v uint32) error {
	if err := b.check(offset, 4); err != nil {
		return err
	}
	p := b.data[b.off+offset:]
	p[0] = byte(v)
	p[1] = byte(v >> 8)
	p[2] = byte(v >> 16)
	p[3] = byte(v >> 24)
	return nil
}

// 64-bit values travel as *big.Int so the full unsigned range survives and
// out-of-range inputs are rejected instead of silently wrapping. On the wire
// they are two 32-bit halves in the requested byte order.

func (b *Buffer) readHalves(offset int, bigEndian bool) (uint64, error) {
	if err := b.check(offset, 8); err != nil {
		return 0, err
	}
	var hi, lo uint32
	if bigEndian {
		hi, _ = b.ReadUint32BE(offset)
		lo, _ = b.ReadUint32BE(offset + 4)
	} else {
		lo, _ = b.ReadUint32LE(offset)
		hi, _ = b.ReadUint32LE(offset + 4)
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (b *Buffer) writeHalves(offset int, v uint64, bigEndian bool) error {
	if err := b.check(offset, 8); err != nil {
		return err
	}
	lo, hi := uint32(v), uint32(v>>32)
	if bigEndian {
		_ = b.WriteUint32BE(offset, hi)
		return b.WriteUint32BE(offset+4, lo)
	}
	_ = b.WriteUint32LE(offset, lo)
	return b.WriteUint32LE(offset+4, hi)
}

// ReadUint64BE reads an unsigned 64-bit value, high half first.
func (b *Buffer) ReadUint64BE(offset int) (*big.Int, error) {
	v, err := b.readHalves(offset, true)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(v), nil
}

// ReadUint64LE reads an unsigned 64-bit value, low half first.
func (b *Buffer) ReadUint64LE(offset int) (*big.Int, error) {
	v, err := b.readHalves(offset, false)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(v), nil
}

// ReadInt64BE reads a two's-complement 64-bit value, high half first.
func (b *Buffer) ReadInt64BE(offset int) (*big.Int, error) {
	v, err := b.readHalves(offset, true)
	if err != nil {
		return nil, err
	}
	return big.NewInt(int64(v)), nil
}

// ReadInt64LE reads a two's-complement 64-bit value, low half first.
func (b *Buffer) ReadInt64LE(offset int) (*big.Int, error) {
	v, err := b.readHalves(offset, false)
	if err != nil {
		return nil, err
	}
	return big.NewInt(int64(v)), nil
}

// WriteUint64BE stores v, which must fit in [0, 2^64-1].
func (b *Buffer) WriteUint64BE(offset int, v *big.Int) error {
	u, err := CheckUint64(v)
	if err != nil {
		return err
	}
	return b.writeHalves(offset, u, true)
}

// WriteUint64LE is the little-endian form of WriteUint64BE.
func (b *Buffer) WriteUint64LE(offset int, v *big.Int) error {
	u, err := CheckUint64(v)
	if err != nil {
		return err
	}
	return b.writeHalves(offset, u, false)
}

// WriteInt64BE stores v, which must fit in [-2^63, 2^63-1].
func (b *Buffer) WriteInt64BE(offset int, v *big.Int) error {
	i, err := CheckInt64(v)
	if err != nil {
		return err
	}
	return b.writeHalves(offset, uint64(i), true)
}

// WriteInt64LE is the little-endian form of WriteInt64BE.
func (b *Buffer) WriteInt64LE(offset int, v *big.Int) error {
	i, err := CheckInt64(v)
	if err != nil {
		return err
	}
	return b.writeHalves(offset, uint64(i), false)
}

// CheckUint64 validates v against [0, 2^64-1].
func CheckUint64(v *big.Int) (uint64, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(maxUint64) > 0 {
		return 0, rangeError(v, "0", maxUint64.String())
	}
	return v.Uint64(), nil
}

// CheckInt64 validates v against [-2^63, 2^63-1].
func CheckInt64(v *big.Int) (int64, error) {
	if v == nil || v.Cmp(minInt64) < 0 || v.Cmp(maxInt64) > 0 {
		return 0, rangeError(v, minInt64.String(), maxInt64.String())
	}
	return v.Int64(), nil
}

func rangeError(v *big.Int, lo, hi string) error {
	got := "<nil>"
	if v != nil {
		got = v.String()
	}
	return faults.New(faults.IntegerRange, "bytebuf: integer out of range").
		With("value", got).With("min", lo).With("max", hi)
}
