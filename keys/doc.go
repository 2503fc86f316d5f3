// Package keys manages master key material for sealkit.
//
// API stability:
//
// Stable:
//   - Material, Getter and the pure derivation and signing helpers
//     (DeriveRoleSeed, SignEnvelope, VerifyEnvelope, SignerKey).
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). It is a local-first utility and
//     its on-disk layout may change in MINOR releases.
package keys
