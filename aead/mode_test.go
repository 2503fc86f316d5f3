package aead

import (
	"testing"

	"xdao.co/sealkit/faults"
)

func TestResolveMode(t *testing.T) {
	cases := []struct {
		in   any
		want Mode
	}{
		{"aes-gcm", AESGCM},
		{"GCM", AESGCM},
		{"gcm", AESGCM},
		{"aes-ccm", AESCCM},
		{"CCM", AESCCM},
		{"chacha20-poly1305", ChaCha20Poly1305},
		{"chacha20", ChaCha20Poly1305},
		{0x15, AESGCM},
		{uint8(0x1C), AESCCM},
		{uint32(0xC5), ChaCha20Poly1305},
		{AlgAESCCM, AESCCM},
		{ChaCha20Poly1305, ChaCha20Poly1305},
	}
	for _, tc := range cases {
		got, err := ResolveMode(tc.in)
		if err != nil {
			t.Fatalf("ResolveMode(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ResolveMode(%v)=%s want %s", tc.in, got, tc.want)
		}
	}

	for _, bad := range []any{"aes-ctr", 0x16, -1, 1 << 20, Mode{}, 3.5, nil} {
		if _, err := ResolveMode(bad); !faults.Is(err, faults.UnknownMode) {
			t.Fatalf("ResolveMode(%v): expected UnknownMode, got %v", bad, err)
		}
	}
}

func TestModeParameters(t *testing.T) {
	if AESGCM.IVLen() != 12 || AESCCM.IVLen() != 13 || ChaCha20Poly1305.IVLen() != 12 {
		t.Fatalf("unexpected iv lengths")
	}
	for _, m := range []Mode{AESGCM, AESCCM, ChaCha20Poly1305} {
		if m.TagLen() != 16 {
			t.Fatalf("%s tag length %d", m, m.TagLen())
		}
	}
	if AESGCM.Name() != "aes-gcm" || AESCCM.Name() != "aes-ccm" || ChaCha20Poly1305.Name() != "chacha20-poly1305" {
		t.Fatalf("unexpected names")
	}
	if (Mode{}).String() != "invalid" {
		t.Fatalf("zero mode should render as invalid")
	}
}

func TestCheckKeySize(t *testing.T) {
	for _, n := range []int{16, 24, 32} {
		if err := AESGCM.CheckKeySize(n); err != nil {
			t.Fatalf("AES-GCM %d: %v", n, err)
		}
	}
	if err := ChaCha20Poly1305.CheckKeySize(16); !faults.Is(err, faults.InvalidKeyLength) {
		t.Fatalf("expected InvalidKeyLength, got %v", err)
	}
	if err := AESCCM.CheckKeySize(20); !faults.IsKind(err, faults.KindInvalidKeyLength) {
		t.Fatalf("expected KindInvalidKeyLength, got %v", err)
	}
}
