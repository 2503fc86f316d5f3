package aead

import (
	"slices"
	"strings"

	"xdao.co/sealkit/faults"
)

// Algorithm is the numeric algorithm id (agid) carried on the wire.
type Algorithm uint8

const (
	AlgAESGCM           Algorithm = 0x15
	AlgAESCCM           Algorithm = 0x1C
	AlgChaCha20Poly1305 Algorithm = 0xC5
)

// TagLen is the authentication tag length shared by every mode.
const TagLen = 16

// Mode is one of the three supported AEAD constructions. The zero Mode is
// invalid.
type Mode struct {
	alg Algorithm
}

var (
	AESGCM           = Mode{AlgAESGCM}
	AESCCM           = Mode{AlgAESCCM}
	ChaCha20Poly1305 = Mode{AlgChaCha20Poly1305}
)

type modeParams struct {
	name     string
	keySizes []int
	ivLen    int
}

var (
	aesKeySizes    = []int{16, 24, 32}
	chachaKeySizes = []int{32}
)

func (m Mode) params() (modeParams, bool) {
	switch m.alg {
	case AlgAESGCM:
		return modeParams{name: "aes-gcm", keySizes: aesKeySizes, ivLen: 12}, true
	case AlgAESCCM:
		return modeParams{name: "aes-ccm", keySizes: aesKeySizes, ivLen: 13}, true
	case AlgChaCha20Poly1305:
		return modeParams{name: "chacha20-poly1305", keySizes: chachaKeySizes, ivLen: 12}, true
	default:
		return modeParams{}, false
	}
}

func (m Mode) Valid() bool {
	_, ok := m.params()
	return ok
}

func (m Mode) Algorithm() Algorithm { return m.alg }

func (m Mode) Name() string {
	p, _ := m.params()
	return p.name
}

func (m Mode) IVLen() int {
	p, _ := m.params()
	return p.ivLen
}

func (m Mode) TagLen() int {
	if !m.Valid() {
		return 0
	}
	return TagLen
}

// KeySizes returns the allowed key lengths in bytes.
func (m Mode) KeySizes() []int {
	p, _ := m.params()
	return slices.Clone(p.keySizes)
}

// CheckKeySize reports InvalidKeyLength unless n is allowed for m.
func (m Mode) CheckKeySize(n int) error {
	p, ok := m.params()
	if !ok {
		return faults.New(faults.UnknownMode, "invalid mode").With("agid", uint8(m.alg))
	}
	if !slices.Contains(p.keySizes, n) {
		return faults.New(faults.InvalidKeyLength, "key length not allowed for mode").
			With("mode", p.name).With("size", n).With("allowed", p.keySizes)
	}
	return nil
}

func (m Mode) String() string {
	if name := m.Name(); name != "" {
		return name
	}
	return "invalid"
}

func modeByName(name string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "aes-gcm", "aes_gcm", "gcm":
		return AESGCM, true
	case "aes-ccm", "aes_ccm", "ccm":
		return AESCCM, true
	case "chacha20-poly1305", "chacha20_poly1305", "chacha20", "chacha":
		return ChaCha20Poly1305, true
	}
	return Mode{}, false
}

// ResolveMode accepts a Mode, an Algorithm, a numeric agid or a mode name.
func ResolveMode(v any) (Mode, error) {
	var m Mode
	switch x := v.(type) {
	case Mode:
		m = x
	case *Mode:
		if x != nil {
			m = *x
		}
	case Algorithm:
		m = Mode{x}
	case string:
		if byName, ok := modeByName(x); ok {
			return byName, nil
		}
		return Mode{}, faults.New(faults.UnknownMode, "unknown mode name").With("mode", x)
	case int:
		if x >= 0 && x <= 0xFF {
			m = Mode{Algorithm(x)}
		}
	case uint8:
		m = Mode{Algorithm(x)}
	case uint32:
		if x <= 0xFF {
			m = Mode{Algorithm(x)}
		}
	case int64:
		if x >= 0 && x <= 0xFF {
			m = Mode{Algorithm(x)}
		}
	}
	if !m.Valid() {
		return Mode{}, faults.New(faults.UnknownMode, "cannot resolve mode").With("value", v)
	}
	return m, nil
}
