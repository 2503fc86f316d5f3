package keys

import (
	"bytes"
	"context"
	"testing"

	"xdao.co/sealkit/faults"
)

func TestNewMaterialWipesSource(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	m := NewMaterial(src)
	defer m.Destroy()

	if !bytes.Equal(src, make([]byte, 4)) {
		t.Fatalf("source not wiped: %x", src)
	}
	b, err := m.Bytes()
	if err != nil || !bytes.Equal(b, []byte{1, 2, 3, 4}) {
		t.Fatalf("Bytes=%x %v", b, err)
	}
	if m.Len() != 4 {
		t.Fatalf("Len=%d", m.Len())
	}
}

func TestMaterialDestroy(t *testing.T) {
	m := NewMaterial([]byte{9, 9})
	clone, err := m.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	m.Destroy()
	m.Destroy()

	if !m.Destroyed() || m.Len() != 0 {
		t.Fatalf("expected destroyed material")
	}
	if _, err := m.Bytes(); !faults.Is(err, faults.Released) {
		t.Fatalf("expected Released, got %v", err)
	}
	if b, err := clone.Bytes(); err != nil || !bytes.Equal(b, []byte{9, 9}) {
		t.Fatalf("clone should survive: %x %v", b, err)
	}
	clone.Destroy()
}

func TestRandomMaterial(t *testing.T) {
	m, err := RandomMaterial(32)
	if err != nil {
		t.Fatalf("RandomMaterial: %v", err)
	}
	defer m.Destroy()
	if m.Len() != 32 {
		t.Fatalf("Len=%d", m.Len())
	}
	if _, err := RandomMaterial(0); !faults.Is(err, faults.InvalidKeyLength) {
		t.Fatalf("expected InvalidKeyLength, got %v", err)
	}
}

func TestStaticGetter(t *testing.T) {
	g := Static([]byte{7, 7, 7})
	a, err := g.Key(context.Background())
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	a.Destroy()
	b, err := g.Key(context.Background())
	if err != nil {
		t.Fatalf("Key after destroying a copy: %v", err)
	}
	defer b.Destroy()
	if raw, _ := b.Bytes(); !bytes.Equal(raw, []byte{7, 7, 7}) {
		t.Fatalf("unexpected key %x", raw)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Key(ctx); err == nil {
		t.Fatalf("expected cancellation error")
	}

	g.Destroy()
	if !g.Destroyed() {
		t.Fatalf("expected getter to report destroyed")
	}
	if _, err := g.Key(context.Background()); !faults.Is(err, faults.Released) {
		t.Fatalf("expected Released after Destroy, got %v", err)
	}
	g.Destroy()
}
