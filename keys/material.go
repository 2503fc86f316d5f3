package keys

import (
	"sync"

	"github.com/awnumar/memguard"

	"xdao.co/sealkit/faults"
)

// Material holds secret key bytes in mlocked, guarded memory.
//
// The zero value is not usable; construct with NewMaterial or RandomMaterial.
type Material struct {
	mu        sync.Mutex
	buf       *memguard.LockedBuffer
	n         int
	destroyed bool
}

// NewMaterial moves b into guarded memory. The source slice is wiped.
func NewMaterial(b []byte) *Material {
	m := &Material{n: len(b)}
	if len(b) > 0 {
		m.buf = memguard.NewBufferFromBytes(b)
	}
	return m
}

// RandomMaterial returns n bytes of fresh random key material.
func RandomMaterial(n int) (*Material, error) {
	if n <= 0 {
		return nil, faults.New(faults.InvalidKeyLength, "key size must be positive").With("size", n)
	}
	return &Material{buf: memguard.NewBufferRandom(n), n: n}, nil
}

// Len returns the key length in bytes. It is 0 after Destroy.
func (m *Material) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return 0
	}
	return m.n
}

// Bytes exposes the guarded bytes. The returned slice aliases locked memory and
// must not be retained past Destroy.
func (m *Material) Bytes() ([]byte, error) {
	if m == nil {
		return nil, faults.New(faults.Released, "key material is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, faults.New(faults.Released, "key material has been destroyed")
	}
	if m.buf == nil {
		return []byte{}, nil
	}
	return m.buf.Bytes(), nil
}

// Clone copies the material into a new independently destroyable guard.
func (m *Material) Clone() (*Material, error) {
	b, err := m.Bytes()
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return NewMaterial(cp), nil
}

// Destroy wipes and unlocks the guarded memory. It is safe to call repeatedly.
func (m *Material) Destroy() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	if m.buf != nil {
		m.buf.Destroy()
		m.buf = nil
	}
	m.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (m *Material) Destroyed() bool {
	if m == nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}
