package keys

import (
	"xdao.co/sealkit/faults"
)

func checkIdent(kind, s string) error {
	if s == "" {
		return faults.Newf(faults.InvalidKeyName, "%s cannot be empty", kind)
	}
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return faults.Newf(faults.InvalidKeyName, "invalid character %q in %s", char, kind)
	}
	return nil
}

// CheckKeyName validates a key store entry name.
func CheckKeyName(name string) error { return checkIdent("key name", name) }

// CheckRole validates a signing role name.
func CheckRole(role string) error { return checkIdent("role", role) }
