package aead

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"sync"

	"xdao.co/sealkit/faults"
)

const counterLen = 8

// NonceSource produces IVs of the requested length.
type NonceSource interface {
	Next(n int) ([]byte, error)
}

// CounterNonces produces IVs from a random prefix and an 8-byte big-endian
// counter. IVs of 8 bytes or less are fully random.
//
// The prefix is regenerated and the counter reset whenever the requested length
// changes or the counter is exhausted. Within one prefix no IV repeats.
type CounterNonces struct {
	mu      sync.Mutex
	rand    io.Reader
	prefix  []byte
	counter uint64

	// onRegenerate is called with the new prefix length while mu is held.
	onRegenerate func(prefixLen int)
}

// NewCounterNonces returns a CounterNonces drawing randomness from r, or from
// crypto/rand when r is nil.
func NewCounterNonces(r io.Reader) *CounterNonces {
	if r == nil {
		r = rand.Reader
	}
	return &CounterNonces{rand: r}
}

func (c *CounterNonces) Next(n int) ([]byte, error) {
	if n <= 0 {
		return nil, faults.New(faults.IVLength, "iv length must be positive").With("size", n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rand == nil {
		c.rand = rand.Reader
	}
	iv := make([]byte, n)
	if n <= counterLen {
		if _, err := io.ReadFull(c.rand, iv); err != nil {
			return nil, err
		}
		return iv, nil
	}

	if c.prefix == nil || len(c.prefix) != n-counterLen || c.counter == math.MaxUint64 {
		prefix := make([]byte, n-counterLen)
		if _, err := io.ReadFull(c.rand, prefix); err != nil {
			return nil, err
		}
		c.prefix = prefix
		c.counter = 0
		if c.onRegenerate != nil {
			c.onRegenerate(len(prefix))
		}
	}
	c.counter++
	copy(iv, c.prefix)
	binary.BigEndian.PutUint64(iv[len(c.prefix):], c.counter)
	return iv, nil
}

// FixedNonces is a deterministic NonceSource for tests. It emits an all-zero
// prefix followed by a big-endian counter starting at 1.
type FixedNonces struct {
	mu      sync.Mutex
	counter uint64
}

func (f *FixedNonces) Next(n int) ([]byte, error) {
	if n <= 0 {
		return nil, faults.New(faults.IVLength, "iv length must be positive").With("size", n)
	}
	f.mu.Lock()
	f.counter++
	v := f.counter
	f.mu.Unlock()

	var ctr [counterLen]byte
	binary.BigEndian.PutUint64(ctr[:], v)
	iv := make([]byte, n)
	if n >= counterLen {
		copy(iv[n-counterLen:], ctr[:])
	} else {
		copy(iv, ctr[counterLen-n:])
	}
	return iv, nil
}
