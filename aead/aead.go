package aead

import (
	"bytes"
	"context"

	"xdao.co/sealkit/keys"
)

// defaultNonces backs the package-level helpers so that every call in the
// process draws from one counter.
var defaultNonces = NewCounterNonces(nil)

// staticKey is swapped in tests to observe the helper's key lifetime.
var staticKey = keys.Static

// withSealer runs fn with a Sealer over a guarded copy of key. The copy is
// destroyed before withSealer returns.
func withSealer(key []byte, fn func(*Sealer) ([]byte, error)) ([]byte, error) {
	g := staticKey(bytes.Clone(key))
	defer g.Destroy()
	return fn(NewSealer(g, WithNonceSource(defaultNonces)))
}

// Encrypt seals plaintext under a raw master key. mode is anything
// ResolveMode accepts. key is copied, not wiped.
func Encrypt(ctx context.Context, mode any, key, plaintext []byte, p Params) ([]byte, error) {
	m, err := ResolveMode(mode)
	if err != nil {
		return nil, err
	}
	return withSealer(key, func(s *Sealer) ([]byte, error) {
		return s.Seal(ctx, m, plaintext, p)
	})
}

// EncryptLayered is the layered form of Encrypt.
func EncryptLayered(ctx context.Context, mode any, key, plaintext []byte, layers int, p Params) ([]byte, error) {
	m, err := ResolveMode(mode)
	if err != nil {
		return nil, err
	}
	return withSealer(key, func(s *Sealer) ([]byte, error) {
		return s.SealLayered(ctx, m, plaintext, layers, p)
	})
}

// Decrypt opens a single-layer envelope under a raw master key.
func Decrypt(ctx context.Context, key, envelope []byte, p Params) ([]byte, error) {
	return withSealer(key, func(s *Sealer) ([]byte, error) {
		opened, err := s.Open(ctx, envelope, p)
		if err != nil {
			return nil, err
		}
		return opened.Plaintext, nil
	})
}
