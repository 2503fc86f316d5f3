package keys

import (
	"crypto/ed25519"
	"crypto/sha256"

	"xdao.co/sealkit/faults"
)

// MinRootSize is the shortest master key accepted for role derivation.
const MinRootSize = 16

// DeriveRoleSeed deterministically derives a role-specific 32-byte signing seed
// from master key bytes.
func DeriveRoleSeed(root []byte, role string) ([]byte, error) {
	if len(root) < MinRootSize {
		return nil, faults.New(faults.InvalidKeyLength, "root key too short for role derivation").
			With("size", len(root)).With("min", MinRootSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(root)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("sealkit-role-seed-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	sum := h.Sum(nil)
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	Wipe(sum)
	return out, nil
}
