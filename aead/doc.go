// Package aead implements the sealkit authenticated-encryption envelope.
//
// An envelope binds two AEAD operations under subkeys derived from one master
// key with HKDF-SHA512. A small header (protocol version and timestamp) is
// sealed first under the caller's associated data. The payload is then sealed
// with the header ciphertext as its associated data, so a payload cannot be
// moved between envelopes.
//
// Wire layout (single layer):
//
//	MAGIC(16) | 0x01 | VERSION | AGID | KEYLEN |
//	HEADER_IV | HEADER_CT | HEADER_TAG | DATA_IV | DATA_CT | DATA_TAG | END
//
// Every field after the option byte is a binproto inline value: UInt32 for
// VERSION, AGID, KEYLEN and END (0xAE0D), Binary for the rest.
//
// Layered envelopes are MAGIC | 0x02 | COUNT(1) | <outermost single envelope>.
// They can be produced and inspected but not opened.
package aead
