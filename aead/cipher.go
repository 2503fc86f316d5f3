package aead

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/pion/dtls/v2/pkg/crypto/ccm"
	"golang.org/x/crypto/chacha20poly1305"

	"xdao.co/sealkit/faults"
)

func newCipher(mode Mode, key []byte) (cipher.AEAD, error) {
	if err := mode.CheckKeySize(len(key)); err != nil {
		return nil, err
	}
	switch mode.alg {
	case AlgAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, faults.Wrap(faults.InvalidKeyLength, "aes key rejected", err)
		}
		return cipher.NewGCMWithTagSize(block, TagLen)
	case AlgAESCCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, faults.Wrap(faults.InvalidKeyLength, "aes key rejected", err)
		}
		return ccm.NewCCM(block, TagLen, mode.IVLen())
	case AlgChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, faults.Wrap(faults.InvalidKeyLength, "chacha20 key rejected", err)
		}
		return aead, nil
	default:
		return nil, faults.New(faults.UnknownMode, "invalid mode").With("agid", uint8(mode.alg))
	}
}

// seal returns ciphertext and tag as separate slices.
func seal(mode Mode, key, iv, plaintext, aad []byte) (ct, tag []byte, err error) {
	c, err := newCipher(mode, key)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != c.NonceSize() {
		return nil, nil, faults.New(faults.IVLength, "iv length does not match mode").
			With("mode", mode.Name()).With("size", len(iv)).With("want", c.NonceSize())
	}
	out := c.Seal(nil, iv, plaintext, aad)
	split := len(out) - c.Overhead()
	return out[:split:split], out[split:], nil
}

func open(mode Mode, key, iv, ct, tag, aad []byte) ([]byte, error) {
	c, err := newCipher(mode, key)
	if err != nil {
		return nil, err
	}
	if len(iv) != c.NonceSize() {
		return nil, faults.New(faults.IVLength, "iv length does not match mode").
			With("mode", mode.Name()).With("size", len(iv)).With("want", c.NonceSize())
	}
	if len(tag) != c.Overhead() {
		return nil, faults.New(faults.AuthFailed, "authentication tag has wrong length").
			With("size", len(tag)).With("want", c.Overhead())
	}
	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	pt, err := c.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, faults.Wrap(faults.AuthFailed, "message authentication failed", err).With("mode", mode.Name())
	}
	return pt, nil
}
