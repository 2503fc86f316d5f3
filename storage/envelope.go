package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/sealkit/aead"
)

// PutEnvelope stores b after checking that it is a well-formed sealkit
// envelope (single or layered). Nothing is decrypted.
func PutEnvelope(ctx context.Context, cas CAS, b []byte) (cid.Cid, *aead.Info, error) {
	if !aead.IsEnvelope(b) {
		return cid.Undef, nil, ErrNotEnvelope
	}
	info, err := aead.Inspect(b)
	if err != nil {
		return cid.Undef, nil, fmt.Errorf("%w: %w", ErrNotEnvelope, err)
	}
	id, err := cas.Put(ctx, b)
	if err != nil {
		return cid.Undef, nil, err
	}
	return id, info, nil
}

// GetEnvelope fetches id and inspects its framing.
func GetEnvelope(ctx context.Context, cas CAS, id cid.Cid) ([]byte, *aead.Info, error) {
	b, err := cas.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	info, err := aead.Inspect(b)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNotEnvelope, err)
	}
	return b, info, nil
}

// EnvelopeCAS rejects Put of anything that is not a well-formed envelope.
// Reads pass through unchanged.
type EnvelopeCAS struct {
	CAS
}

func (e EnvelopeCAS) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	id, _, err := PutEnvelope(ctx, e.CAS, b)
	return id, err
}
