package aead

// Mask returns data XORed with a repeating mask. An empty mask returns a copy
// of data. Applying the same mask twice restores the input.
//
// Masking is obfuscation, not encryption.
func Mask(data, mask []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	MaskInPlace(out, mask)
	return out
}

// MaskInPlace XORs data with a repeating mask.
func MaskInPlace(data, mask []byte) {
	if len(mask) == 0 {
		return
	}
	for i := range data {
		data[i] ^= mask[i%len(mask)]
	}
}
