package bytebuf

import "bytes"

// IndexOf returns the first offset of needle in b, or -1.
// An empty needle matches at offset 0.
func (b *Buffer) IndexOf(needle []byte) int {
	return b.IndexFrom(needle, 0)
}

// IndexOfBuffer is IndexOf with a Buffer needle.
func (b *Buffer) IndexOfBuffer(needle *Buffer) int {
	return b.IndexFrom(needle.Bytes(), 0)
}

// IndexFrom searches for needle starting at from using Boyer-Moore-Horspool.
// The bad-character table is rebuilt on every call.
func (b *Buffer) IndexFrom(needle []byte, from int) int {
	hay := b.Bytes()
	if from < 0 {
		from = 0
	}
	if from > len(hay) {
		from = len(hay)
	}
	m := len(needle)
	if m == 0 {
		return from
	}
	if m > len(hay)-from {
		return -1
	}
	if m == 1 {
		i := bytes.IndexByte(hay[from:], needle[0])
		if i < 0 {
			return -1
		}
		return from + i
	}

	var shift [256]int
	for i := range shift {
		shift[i] = m
	}
	for i := 0; i < m-1; i++ {
		shift[needle[i]] = m - 1 - i
	}

	last := len(hay) - m
	for i := from; i <= last; {
		j := m - 1
		for j >= 0 && hay[i+j] == needle[j] {
			j--
		}
		if j < 0 {
			return i
		}
		i += shift[hay[i+m-1]]
	}
	return -1
}
