package aead

import (
	"bytes"
	"context"
	"testing"

	"xdao.co/sealkit/keys"
)

// trackKeys records every static getter the package helpers create.
func trackKeys(t *testing.T) *[]*keys.StaticGetter {
	t.Helper()
	var made []*keys.StaticGetter
	prev := staticKey
	staticKey = func(b []byte) *keys.StaticGetter {
		g := prev(b)
		made = append(made, g)
		return g
	}
	t.Cleanup(func() { staticKey = prev })
	return &made
}

func TestHelpersDestroyKeyCopies(t *testing.T) {
	made := trackKeys(t)
	ctx := context.Background()
	key := bytes.Repeat([]byte{0x42}, 32)

	env, err := Encrypt(ctx, AESGCM, key, []byte("hello"), Params{})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := EncryptLayered(ctx, ChaCha20Poly1305, key, []byte("hello"), 4, Params{}); err != nil {
		t.Fatalf("EncryptLayered: %v", err)
	}
	if pt, err := Decrypt(ctx, key, env, Params{}); err != nil || string(pt) != "hello" {
		t.Fatalf("Decrypt=%q %v", pt, err)
	}
	if _, err := Decrypt(ctx, key, env, Params{AAD: []byte("other")}); err == nil {
		t.Fatalf("expected failure for wrong aad")
	}
	if _, err := Encrypt(ctx, AESGCM, key[:5], []byte("hello"), Params{}); err == nil {
		t.Fatalf("expected failure for bad key size")
	}

	if len(*made) != 5 {
		t.Fatalf("expected 5 key copies, got %d", len(*made))
	}
	for i, g := range *made {
		if !g.Destroyed() {
			t.Fatalf("call %d left its key copy alive", i)
		}
	}
	if !bytes.Equal(key, bytes.Repeat([]byte{0x42}, 32)) {
		t.Fatalf("caller key was modified")
	}
}
