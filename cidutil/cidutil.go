// Package cidutil derives the content identifiers used by sealkit stores.
//
// Every stored object is addressed by a CIDv1 with the "raw" multicodec and a
// sha2-256 multihash.
package cidutil

import (
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ErrMismatch is returned by Verify when bytes do not hash to the given CID.
var ErrMismatch = errors.New("cidutil: cid mismatch")

// Sum returns the CIDv1 (raw + sha2-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String is Sum rendered in the default multibase, or "" on error.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// Verify checks that data hashes to id. Only raw sha2-256 CIDs are accepted.
func Verify(id cid.Cid, data []byte) error {
	if !id.Defined() {
		return errors.New("cidutil: undefined cid")
	}
	got, err := Sum(data)
	if err != nil {
		return err
	}
	if !got.Equals(id) {
		return ErrMismatch
	}
	return nil
}
