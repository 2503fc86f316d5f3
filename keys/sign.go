package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"xdao.co/sealkit/faults"
)

const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, faults.Newf(faults.UnsupportedAlg, "unsupported hash algorithm: %q", hashAlg)
	}
}

func checkSeed(seed []byte) error {
	if len(seed) != ed25519.SeedSize {
		return faults.New(faults.InvalidKeyLength, "signing seed has wrong length").
			With("size", len(seed)).With("want", ed25519.SeedSize)
	}
	return nil
}

func dilithiumFromSeed(seed []byte) (*mode3.PublicKey, *mode3.PrivateKey) {
	var s [32]byte
	copy(s[:], seed)
	defer Wipe(s[:])
	return mode3.NewKeyFromSeed(&s)
}

// SignerKey formats the public key for seed as "alg:base64(pub)".
func SignerKey(alg string, seed []byte) (string, error) {
	if err := checkSeed(seed); err != nil {
		return "", err
	}
	switch alg {
	case AlgEd25519:
		pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
		return AlgEd25519 + ":" + base64.StdEncoding.EncodeToString(pub), nil
	case AlgDilithium3:
		pk, _ := dilithiumFromSeed(seed)
		return AlgDilithium3 + ":" + base64.StdEncoding.EncodeToString(pk.Bytes()), nil
	default:
		return "", faults.Newf(faults.UnsupportedAlg, "unsupported signature algorithm: %q", alg)
	}
}

// SignEnvelope returns a base64 detached signature over hash(envelope).
// hashAlg must be one of: sha256, sha512, sha3-256.
func SignEnvelope(envelope []byte, alg, hashAlg string, seed []byte) (string, error) {
	if err := checkSeed(seed); err != nil {
		return "", err
	}
	digest, err := digestFor(hashAlg, envelope)
	if err != nil {
		return "", err
	}
	switch alg {
	case AlgEd25519:
		priv := ed25519.NewKeyFromSeed(seed)
		defer Wipe(priv)
		return base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest)), nil
	case AlgDilithium3:
		_, sk := dilithiumFromSeed(seed)
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(sk, digest, sig)
		return base64.StdEncoding.EncodeToString(sig), nil
	default:
		return "", faults.Newf(faults.UnsupportedAlg, "unsupported signature algorithm: %q", alg)
	}
}

// VerifyEnvelope checks a signature produced by SignEnvelope against a signer
// key in SignerKey format.
func VerifyEnvelope(envelope []byte, signerKey, hashAlg, signature string) error {
	alg, pubB64, ok := strings.Cut(signerKey, ":")
	if !ok {
		return faults.New(faults.UnsupportedAlg, "signer key must be alg:base64").With("key", signerKey)
	}
	pub, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		return faults.Wrap(faults.UnsupportedAlg, "signer key is not valid base64", err)
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return faults.Wrap(faults.AuthFailed, "signature is not valid base64", err)
	}
	digest, err := digestFor(hashAlg, envelope)
	if err != nil {
		return err
	}

	var valid bool
	switch alg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return faults.New(faults.InvalidKeyLength, "ed25519 public key has wrong length").With("size", len(pub))
		}
		valid = ed25519.Verify(ed25519.PublicKey(pub), digest, sig)
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return faults.Wrap(faults.InvalidKeyLength, "invalid dilithium3 public key", err)
		}
		valid = mode3.Verify(&pk, digest, sig)
	default:
		return faults.Newf(faults.UnsupportedAlg, "unsupported signature algorithm: %q", alg)
	}
	if !valid {
		return faults.New(faults.AuthFailed, "signature verification failed").With("alg", alg)
	}
	return nil
}
