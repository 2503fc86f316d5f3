package aead

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"xdao.co/sealkit/faults"
	"xdao.co/sealkit/keys"
)

func fixedClock() time.Time {
	return time.UnixMilli(1700000000123).UTC()
}

func testSealer(key []byte, opts ...Option) *Sealer {
	base := []Option{WithNonceSource(&FixedNonces{}), WithClock(fixedClock)}
	return NewSealer(keys.Static(bytes.Clone(key)), append(base, opts...)...)
}

func TestRoundTripAllModesAndKeySizes(t *testing.T) {
	ctx := context.Background()
	plaintext := []byte("sealkit round trip payload")
	cases := []struct {
		mode Mode
		size int
	}{
		{AESGCM, 16}, {AESGCM, 24}, {AESGCM, 32},
		{AESCCM, 16}, {AESCCM, 24}, {AESCCM, 32},
		{ChaCha20Poly1305, 32},
	}
	for _, tc := range cases {
		key := bytes.Repeat([]byte{byte(tc.size)}, tc.size)
		p := Params{AAD: []byte("aad"), Salt: []byte("salt")}

		env, err := Encrypt(ctx, tc.mode, key, plaintext, p)
		if err != nil {
			t.Fatalf("%s/%d Encrypt: %v", tc.mode, tc.size, err)
		}
		got, err := Decrypt(ctx, key, env, p)
		if err != nil {
			t.Fatalf("%s/%d Decrypt: %v", tc.mode, tc.size, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("%s/%d: got %q", tc.mode, tc.size, got)
		}

		info, err := Inspect(env)
		if err != nil {
			t.Fatalf("Inspect: %v", err)
		}
		if info.Algorithm != tc.mode.Algorithm() || info.KeyLen != tc.size || info.Layers != 1 || info.IVLen != tc.mode.IVLen() {
			t.Fatalf("unexpected info %+v", info)
		}
	}
}

func TestHelloUnderZeroKey(t *testing.T) {
	ctx := context.Background()
	key := make([]byte, 32)
	salt := []byte("fixed-salt")

	env, err := Encrypt(ctx, "aes-gcm", key, []byte("hello"), Params{AAD: []byte("header-a"), Salt: salt})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(ctx, key, env, Params{AAD: []byte("header-a"), Salt: salt})
	if err != nil || string(got) != "hello" {
		t.Fatalf("Decrypt=%q %v", got, err)
	}

	_, err = Decrypt(ctx, key, env, Params{AAD: []byte("header-b"), Salt: salt})
	if !faults.Is(err, faults.AuthFailed) || !faults.IsKind(err, faults.KindAuthentication) {
		t.Fatalf("expected AuthFailed for different aad, got %v", err)
	}
	if _, err := Decrypt(ctx, key, env, Params{AAD: []byte("header-a")}); !faults.Is(err, faults.AuthFailed) {
		t.Fatalf("expected AuthFailed for missing salt, got %v", err)
	}
}

func TestOpenReturnsHeaderTimestamp(t *testing.T) {
	ctx := context.Background()
	s := testSealer(bytes.Repeat([]byte{1}, 16))
	env, err := s.Seal(ctx, AESCCM, []byte("x"), Params{})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	opened, err := s.Open(ctx, env, Params{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !opened.Created.Equal(fixedClock()) || opened.Mode != AESCCM {
		t.Fatalf("unexpected result %+v", opened)
	}
}

func TestSealIsDeterministicWithFixedNonces(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{3}, 32)
	a, err := testSealer(key).Seal(ctx, ChaCha20Poly1305, []byte("same"), Params{})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, _ := testSealer(key).Seal(ctx, ChaCha20Poly1305, []byte("same"), Params{})
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical envelopes")
	}

	s := testSealer(key)
	c, _ := s.Seal(ctx, ChaCha20Poly1305, []byte("same"), Params{})
	d, _ := s.Seal(ctx, ChaCha20Poly1305, []byte("same"), Params{})
	if bytes.Equal(c, d) {
		t.Fatalf("one sealer must never reuse ivs")
	}
}

func TestCorruptedEnvelopeFailsClosed(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{9}, 32)
	s := testSealer(key)
	env, err := s.Seal(ctx, AESGCM, []byte("hello"), Params{AAD: []byte("aad")})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	parsed, err := ParseEnvelope(env)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	fields := [][]byte{parsed.HeaderIV, parsed.HeaderCT, parsed.HeaderTag, parsed.DataIV, parsed.DataCT, parsed.DataTag}
	inField := func(i int) bool {
		for _, f := range fields {
			off := bytes.Index(env, f)
			if off >= 0 && i >= off && i < off+len(f) {
				return true
			}
		}
		return false
	}

	for i := range env {
		corrupt := bytes.Clone(env)
		corrupt[i] ^= 0xff
		opened, err := s.Open(ctx, corrupt, Params{AAD: []byte("aad")})
		if err == nil {
			t.Fatalf("byte %d: corrupted envelope opened to %q", i, opened.Plaintext)
		}
		if inField(i) && !faults.Is(err, faults.AuthFailed) {
			t.Fatalf("byte %d: expected AuthFailed, got %v", i, err)
		}
	}
}

func TestMaskedEnvelope(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{4}, 24)
	mask := []byte{0xa5, 0x5a, 0x11}
	env, err := Encrypt(ctx, AESGCM, key, []byte("masked"), Params{Mask: mask})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(ctx, key, env, Params{Mask: mask})
	if err != nil || string(got) != "masked" {
		t.Fatalf("Decrypt=%q %v", got, err)
	}
	if _, err := Decrypt(ctx, key, env, Params{Mask: []byte{0xa5}}); !faults.Is(err, faults.AuthFailed) {
		t.Fatalf("expected AuthFailed for wrong mask, got %v", err)
	}
}

func TestLayeredEnvelope(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{5}, 32)
	for _, tc := range []struct{ req, want int }{{0, 4}, {4, 4}, {7, 7}, {19, 19}, {50, 19}} {
		env, err := EncryptLayered(ctx, AESGCM, key, []byte("deep"), tc.req, Params{})
		if err != nil {
			t.Fatalf("EncryptLayered(%d): %v", tc.req, err)
		}
		info, err := Inspect(env)
		if err != nil {
			t.Fatalf("Inspect: %v", err)
		}
		if info.Option != OptionLayered || info.Layers != tc.want {
			t.Fatalf("layers %d: got %+v", tc.req, info)
		}
		if _, err := Decrypt(ctx, key, env, Params{}); !faults.Is(err, faults.UnsupportedLayered) {
			t.Fatalf("expected UnsupportedLayered, got %v", err)
		}
	}
}

func TestLayeredEnvelopeNestsSingleEnvelopes(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{6}, 32)
	env, err := EncryptLayered(ctx, ChaCha20Poly1305, key, []byte("core"), 4, Params{})
	if err != nil {
		t.Fatalf("EncryptLayered: %v", err)
	}
	cur := env[len(Magic)+2:]
	for i := 0; i < 4; i++ {
		cur, err = Decrypt(ctx, key, cur, Params{})
		if err != nil {
			t.Fatalf("layer %d: %v", i, err)
		}
	}
	if string(cur) != "core" {
		t.Fatalf("innermost plaintext %q", cur)
	}
}

func TestInspectRejectsLayerCountOutOfRange(t *testing.T) {
	key := bytes.Repeat([]byte{6}, 32)
	env, err := EncryptLayered(context.Background(), AESGCM, key, []byte("x"), 4, Params{})
	if err != nil {
		t.Fatalf("EncryptLayered: %v", err)
	}
	for _, n := range []byte{0, 1, MinLayers - 1, MaxLayers + 1, 0xff} {
		bad := bytes.Clone(env)
		bad[len(Magic)+1] = n
		if _, err := Inspect(bad); !faults.Is(err, faults.MalformedEnvelope) {
			t.Fatalf("layers=%d: expected MalformedEnvelope, got %v", n, err)
		}
	}
	for _, n := range []byte{MinLayers, MaxLayers} {
		ok := bytes.Clone(env)
		ok[len(Magic)+1] = n
		if info, err := Inspect(ok); err != nil || info.Layers != int(n) {
			t.Fatalf("layers=%d: Inspect=%+v %v", n, info, err)
		}
	}
}

func TestPayloadSwappedBetweenEnvelopesFailsAuth(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{8}, 32)
	g := keys.Static(bytes.Clone(key))
	t.Cleanup(g.Destroy)
	s := NewSealer(g, WithClock(fixedClock))
	for _, m := range []Mode{AESGCM, AESCCM, ChaCha20Poly1305} {
		a, err := s.Seal(ctx, m, []byte("payload-a"), Params{})
		if err != nil {
			t.Fatalf("%s: Seal a: %v", m, err)
		}
		b, err := s.Seal(ctx, m, []byte("payload-b"), Params{})
		if err != nil {
			t.Fatalf("%s: Seal b: %v", m, err)
		}
		ea, err := ParseEnvelope(a)
		if err != nil {
			t.Fatalf("%s: ParseEnvelope a: %v", m, err)
		}
		eb, err := ParseEnvelope(b)
		if err != nil {
			t.Fatalf("%s: ParseEnvelope b: %v", m, err)
		}
		ea.DataIV, ea.DataCT, ea.DataTag = eb.DataIV, eb.DataCT, eb.DataTag
		mixed, err := ea.MarshalBinary()
		if err != nil {
			t.Fatalf("%s: MarshalBinary: %v", m, err)
		}
		opened, err := s.Open(ctx, mixed, Params{})
		if !faults.Is(err, faults.AuthFailed) {
			t.Fatalf("%s: expected AuthFailed, got %+v %v", m, opened, err)
		}
	}
}

func TestOpenRejectsBadFraming(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{2}, 32)
	s := testSealer(key)
	env, err := s.Seal(ctx, AESGCM, []byte("frame"), Params{})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	parsed, _ := ParseEnvelope(env)

	badMagic := bytes.Clone(env)
	badMagic[0] = 'Y'
	if _, err := s.Open(ctx, badMagic, Params{}); !faults.Is(err, faults.BadMagic) {
		t.Fatalf("expected BadMagic, got %v", err)
	}
	if _, err := s.Open(ctx, []byte("short"), Params{}); !faults.Is(err, faults.BadMagic) {
		t.Fatalf("expected BadMagic, got %v", err)
	}

	v2 := *parsed
	v2.Version = 2
	b, _ := v2.MarshalBinary()
	if _, err := s.Open(ctx, b, Params{}); !faults.Is(err, faults.UnsupportedVersion) {
		t.Fatalf("expected UnsupportedVersion, got %v", err)
	}

	unknown := *parsed
	unknown.Algorithm = 0x42
	b, _ = unknown.MarshalBinary()
	if _, err := s.Open(ctx, b, Params{}); !faults.Is(err, faults.UnknownMode) {
		t.Fatalf("expected UnknownMode, got %v", err)
	}

	shortIV := *parsed
	shortIV.DataIV = shortIV.DataIV[:8]
	b, _ = shortIV.MarshalBinary()
	if _, err := s.Open(ctx, b, Params{}); !faults.Is(err, faults.IVLength) {
		t.Fatalf("expected IVLength, got %v", err)
	}

	trailing := append(bytes.Clone(env), 0)
	if _, err := s.Open(ctx, trailing, Params{}); !faults.Is(err, faults.MalformedEnvelope) {
		t.Fatalf("expected MalformedEnvelope, got %v", err)
	}
}

func TestOpenRejectsKeyMismatch(t *testing.T) {
	ctx := context.Background()
	env, err := Encrypt(ctx, AESGCM, bytes.Repeat([]byte{1}, 32), []byte("k"), Params{})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(ctx, bytes.Repeat([]byte{1}, 16), env, Params{}); !faults.Is(err, faults.KeyLengthMismatch) {
		t.Fatalf("expected KeyLengthMismatch, got %v", err)
	}
	if _, err := Decrypt(ctx, bytes.Repeat([]byte{2}, 32), env, Params{}); !faults.Is(err, faults.AuthFailed) {
		t.Fatalf("expected AuthFailed for wrong key, got %v", err)
	}
}

func TestSealRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	if _, err := Encrypt(ctx, ChaCha20Poly1305, make([]byte, 16), nil, Params{}); !faults.Is(err, faults.InvalidKeyLength) {
		t.Fatalf("expected InvalidKeyLength, got %v", err)
	}
	if _, err := Encrypt(ctx, "aes-xts", make([]byte, 32), nil, Params{}); !faults.Is(err, faults.UnknownMode) {
		t.Fatalf("expected UnknownMode, got %v", err)
	}

	none := NewSealer(keys.GetterFunc(func(context.Context) (*keys.Material, error) { return nil, nil }))
	if _, err := none.Seal(ctx, AESGCM, nil, Params{}); !faults.Is(err, faults.KeyUnavailable) {
		t.Fatalf("expected KeyUnavailable, got %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := NewSealer(keys.Static(make([]byte, 32))).Seal(cctx, AESGCM, nil, Params{})
	if !faults.Is(err, faults.KeyUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped cancellation, got %v", err)
	}
}
