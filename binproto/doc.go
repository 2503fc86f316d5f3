// Package binproto implements the sealkit binary protocol: cursor-based
// Reader and Writer types over bytebuf.Buffer, the VQL variable-length
// integer codec, and a tagged inline serialization format.
//
// # Inline format
//
// Every value is one tag byte followed by a tag-specific payload:
//
//	Null    0x00  (no payload)
//	String  0x01  VQL byte length || UTF-8 bytes
//	Uint32  0x02  VQL value
//	Int64   0x03  VQL sign flag (0|1) || 8 bytes big-endian
//	Float64 0x04  VQL length || shortest round-trip decimal text
//	Object  0x05  VQL length || JSON text
//	Array   0x06  VQL element count || elements
//	Binary  0x07  VQL length || raw bytes
//
// Decoding dispatches strictly on the tag byte. Unknown tags are rejected with
// faults.UnknownTag; there is no skip-without-understanding.
package binproto
