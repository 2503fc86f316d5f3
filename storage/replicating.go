package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/sealkit/cidutil"
)

// NamedCAS associates a CAS with a stable backend name.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes to all configured backends and reads with ordered
// fallback. Every backend must return the CID computed locally, otherwise
// ErrCIDMismatch is returned.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var _ CAS = (*ReplicatingCAS)(nil)

// PutAll writes the same bytes to all backends and returns the canonical CID
// plus the CID each backend reported.
func (r ReplicatingCAS) PutAll(ctx context.Context, b []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, nil, err
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatingCAS has no backends")
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, nb := range r.Backends {
		if nb.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", nb.Name)
		}
		got, err := nb.CAS.Put(ctx, b)
		if err != nil {
			return cid.Undef, nil, fmt.Errorf("storage: backend %q: %w", nb.Name, err)
		}
		out[nb.Name] = got
		if !got.Equals(want) {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingCAS) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(ctx, b)
	return id, err
}

func (r ReplicatingCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	for _, nb := range r.Backends {
		if nb.CAS == nil {
			continue
		}
		out, err := nb.CAS.Get(ctx, id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingCAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	for _, nb := range r.Backends {
		if nb.CAS == nil {
			continue
		}
		ok, err := nb.CAS.Has(ctx, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
