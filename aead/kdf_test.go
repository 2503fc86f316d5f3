package aead

import (
	"bytes"
	"testing"

	"xdao.co/sealkit/faults"
	"xdao.co/sealkit/keys"
)

func derive(t *testing.T, master, salt []byte) (h, p []byte) {
	t.Helper()
	m := keys.NewMaterial(bytes.Clone(master))
	defer m.Destroy()
	hk, pk, err := DeriveKeys(m, salt)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	defer hk.Destroy()
	defer pk.Destroy()
	hb, _ := hk.Bytes()
	pb, _ := pk.Bytes()
	return bytes.Clone(hb), bytes.Clone(pb)
}

func TestDeriveKeys(t *testing.T) {
	master := bytes.Repeat([]byte{7}, 24)
	h1, p1 := derive(t, master, nil)
	h2, p2 := derive(t, master, []byte{})
	if len(h1) != 24 || len(p1) != 24 {
		t.Fatalf("subkeys must match master length")
	}
	if bytes.Equal(h1, p1) {
		t.Fatalf("header and payload subkeys must differ")
	}
	if !bytes.Equal(h1, h2) || !bytes.Equal(p1, p2) {
		t.Fatalf("nil and empty salt must derive the same keys")
	}
	h3, _ := derive(t, master, []byte("salt"))
	if bytes.Equal(h1, h3) {
		t.Fatalf("salt must change the derived keys")
	}
}

func TestDeriveKeysReleasedMaster(t *testing.T) {
	m := keys.NewMaterial([]byte{1, 2, 3})
	m.Destroy()
	if _, _, err := DeriveKeys(m, nil); !faults.Is(err, faults.Released) {
		t.Fatalf("expected Released, got %v", err)
	}
}
