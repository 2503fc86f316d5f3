package keys

import (
	"context"
)

// Getter supplies master key material. A nil Material with a nil error means
// no key is available.
//
// Callers own the returned Material and must Destroy it.
type Getter interface {
	Key(ctx context.Context) (*Material, error)
}

// GetterFunc adapts a function to Getter.
type GetterFunc func(ctx context.Context) (*Material, error)

func (f GetterFunc) Key(ctx context.Context) (*Material, error) {
	return f(ctx)
}

// StaticGetter hands out copies of one fixed key. Destroy releases the
// guarded original; Key fails with Released afterwards.
type StaticGetter struct {
	m *Material
}

// Static returns a StaticGetter for b. b is moved into guarded memory and
// wiped. Callers must Destroy the getter when done.
func Static(b []byte) *StaticGetter {
	return &StaticGetter{m: NewMaterial(b)}
}

func (s *StaticGetter) Key(ctx context.Context) (*Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.m.Clone()
}

// Destroy wipes the held key.
func (s *StaticGetter) Destroy() { s.m.Destroy() }

// Destroyed reports whether Destroy has been called.
func (s *StaticGetter) Destroyed() bool { return s.m.Destroyed() }
