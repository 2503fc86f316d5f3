package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/sealkit/aead"
	"xdao.co/sealkit/faults"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sealkit.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := writeConfig(t, `
mode = "chacha20"
layers = 4
key_dir = "/tmp/sealkit-keys"
key_name = "ops"
salt_hex = "0011"
mask_hex = "ff"

[store]
write_policy = "all"

[[store.backends]]
name = "localfs"
config = { localfs-dir = "/tmp/envelopes" }

[[store.backends]]
name = "sqlite"
id = "db"
config = { sqlite-path = "/tmp/envelopes.db" }

[daemon]
listen = "0.0.0.0:9000"
backend = "db"
max_msg_bytes = 1024
envelopes_only = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	mode, err := cfg.SealMode()
	if err != nil || mode != aead.ChaCha20Poly1305 {
		t.Fatalf("SealMode=%v %v", mode, err)
	}
	if cfg.Layers != 4 || cfg.KeyDir != "/tmp/sealkit-keys" || cfg.KeyName != "ops" {
		t.Fatalf("unexpected top-level values: %+v", cfg)
	}
	p := cfg.Params()
	if !bytes.Equal(p.Salt, []byte{0x00, 0x11}) || !bytes.Equal(p.Mask, []byte{0xff}) {
		t.Fatalf("unexpected params: %+v", p)
	}
	if !cfg.HasStore() || cfg.Store.WritePolicy != "all" || len(cfg.Store.Backends) != 2 {
		t.Fatalf("unexpected store: %+v", cfg.Store)
	}
	if cfg.Store.Backends[1].Config["sqlite-path"] != "/tmp/envelopes.db" {
		t.Fatalf("backend config not decoded: %+v", cfg.Store.Backends[1])
	}
	want := DaemonConfig{Listen: "0.0.0.0:9000", Backend: "db", MaxMsgBytes: 1024, EnvelopesOnly: false}
	if cfg.Daemon != want {
		t.Fatalf("daemon=%+v want %+v", cfg.Daemon, want)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, `layers = 3`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Mode != def.Mode || cfg.KeyName != def.KeyName || cfg.Daemon != def.Daemon {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
	if cfg.Layers != 3 || cfg.HasStore() {
		t.Fatalf("unexpected: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown mode":   `mode = "rot13"`,
		"negative layer": `layers = -1`,
		"bad key name":   `key_name = "../etc"`,
		"bad listen":     "[daemon]\nlisten = \"nope\"",
		"unknown key":    `colour = "blue"`,
		"bad salt":       `salt_hex = "zz"`,
		"bad policy":     "[store]\nwrite_policy = \"some\"\n[[store.backends]]\nname = \"localfs\"",
		"syntax":         `mode = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadBadMaskIsInvalidMask(t *testing.T) {
	_, err := Load(writeConfig(t, `mask_hex = "abc"`))
	if !faults.Is(err, faults.InvalidMask) {
		t.Fatalf("expected InvalidMask, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || !strings.Contains(err.Error(), "load sealkit config") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestKeyStoreUsesKeyDir(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.KeyDir = dir
	ks, err := cfg.KeyStore()
	if err != nil || ks.Directory != dir {
		t.Fatalf("KeyStore=%v %v", ks, err)
	}
}
