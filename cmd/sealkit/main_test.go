package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := runCLI(t, args...)
	if code != 0 {
		t.Fatalf("sealkit %s: exit %d\nstderr: %s", strings.Join(args, " "), code, errOut)
	}
	return out
}

func writeFile(t *testing.T, dir, name string, b []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUsage(t *testing.T) {
	if _, _, code := runCLI(t); code != 2 {
		t.Fatalf("no args: exit %d", code)
	}
	if _, _, code := runCLI(t, "frobnicate"); code != 2 {
		t.Fatalf("unknown command: exit %d", code)
	}
	if out := mustRun(t, "help"); !strings.Contains(out, "sealkit seal") {
		t.Fatalf("usage missing seal: %q", out)
	}
}

func TestKeyInitListExport(t *testing.T) {
	keyDir := t.TempDir()
	out := mustRun(t, "key", "init", "--key-dir", keyDir, "--name", "ops")
	if !strings.Contains(out, "Created key: ops (32 bytes") {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, _, code := runCLI(t, "key", "init", "--key-dir", keyDir, "--name", "ops"); code != 1 {
		t.Fatalf("duplicate init without --force: exit %d", code)
	}
	if _, _, code := runCLI(t, "key", "init", "--key-dir", keyDir, "--name", "x", "--size", "20"); code != 2 {
		t.Fatalf("bad size: exit %d", code)
	}

	hexKey := strings.Repeat("ab", 16)
	mustRun(t, "key", "init", "--key-dir", keyDir, "--name", "imported", "--hex", hexKey)

	list := mustRun(t, "key", "list", "--key-dir", keyDir)
	lines := strings.Split(strings.TrimSpace(list), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "imported\t16\t") || !strings.HasPrefix(lines[1], "ops\t32\t") {
		t.Fatalf("unexpected list %q", list)
	}

	if got := strings.TrimSpace(mustRun(t, "key", "export", "--key-dir", keyDir, "--name", "imported")); got != hexKey {
		t.Fatalf("export=%q want %q", got, hexKey)
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keyDir := filepath.Join(dir, "keys")
	mustRun(t, "key", "init", "--key-dir", keyDir, "--name", "default")

	in := writeFile(t, dir, "msg.txt", []byte("attack at dawn"))
	env := filepath.Join(dir, "msg.env")
	for _, mode := range []string{"aes-gcm", "aes-ccm", "chacha20"} {
		mustRun(t, "seal", "--key-dir", keyDir, "--mode", mode, "--aad", "ctx", "--out", env, in)
		pt := mustRun(t, "open", "--key-dir", keyDir, "--aad", "ctx", env)
		if pt != "attack at dawn" {
			t.Fatalf("%s: open=%q", mode, pt)
		}
		_, errOut, code := runCLI(t, "open", "--key-dir", keyDir, "--aad", "other", env)
		if code != 3 || !strings.Contains(errOut, "open:") {
			t.Fatalf("%s: wrong aad: exit %d %q", mode, code, errOut)
		}
	}

	if _, _, code := runCLI(t, "seal", "--key-dir", keyDir, "--mode", "rot13", in); code != 2 {
		t.Fatalf("bad mode: exit %d", code)
	}
	if _, _, code := runCLI(t, "seal", "--key-dir", keyDir, "--key", "missing", in); code == 0 {
		t.Fatalf("missing key must fail")
	}
}

func TestSealWithKeyHexAndMask(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "msg.txt", []byte("masked"))
	env := filepath.Join(dir, "msg.env")
	key := strings.Repeat("00", 32)

	mustRun(t, "seal", "--key-hex", key, "--mask-hex", "5a", "--salt-hex", "01", "--out", env, in)
	if pt := mustRun(t, "open", "--key-hex", key, "--mask-hex", "5a", "--salt-hex", "01", env); pt != "masked" {
		t.Fatalf("open=%q", pt)
	}
	if _, _, code := runCLI(t, "open", "--key-hex", key, "--salt-hex", "01", env); code == 0 {
		t.Fatalf("open without mask must fail")
	}
	if _, _, code := runCLI(t, "seal", "--key-hex", key, "--mask-hex", "zz", in); code != 2 {
		t.Fatalf("bad mask: exit %d", code)
	}
}

func TestInspectLayered(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "msg.txt", []byte("deep"))
	env := filepath.Join(dir, "msg.env")
	key := strings.Repeat("11", 32)

	mustRun(t, "seal", "--key-hex", key, "--mode", "chacha20", "--layers", "2", "--out", env, in)

	var report map[string]any
	if err := json.Unmarshal([]byte(mustRun(t, "inspect", "--json", env)), &report); err != nil {
		t.Fatalf("inspect json: %v", err)
	}
	if report["layers"] != float64(4) || report["mode"] != "chacha20-poly1305" || report["cid"] == "" {
		t.Fatalf("unexpected report %v", report)
	}
	text := mustRun(t, "inspect", env)
	if !strings.Contains(text, "kind:     layered") {
		t.Fatalf("unexpected inspect output %q", text)
	}

	if _, _, code := runCLI(t, "open", "--key-hex", key, env); code == 0 {
		t.Fatalf("layered envelopes cannot be opened")
	}
	plain := writeFile(t, dir, "plain", []byte("nope"))
	if _, _, code := runCLI(t, "inspect", plain); code != 3 {
		t.Fatalf("inspect non-envelope: exit %d", code)
	}
}

func TestSignVerify(t *testing.T) {
	dir := t.TempDir()
	keyDir := filepath.Join(dir, "keys")
	mustRun(t, "key", "init", "--key-dir", keyDir, "--name", "default")
	in := writeFile(t, dir, "msg.txt", []byte("attest me"))
	env := filepath.Join(dir, "msg.env")
	mustRun(t, "seal", "--key-dir", keyDir, "--out", env, in)

	for _, alg := range []string{"ed25519", "dilithium3"} {
		signer := strings.TrimSpace(mustRun(t, "key", "signer", "--key-dir", keyDir, "--name", "default", "--role", "archiver", "--alg", alg))
		if !strings.HasPrefix(signer, alg+":") {
			t.Fatalf("unexpected signer %q", signer)
		}
		sig := strings.TrimSpace(mustRun(t, "sign", "--key-dir", keyDir, "--role", "archiver", "--alg", alg, "--hash", "sha3-256", env))
		if out := mustRun(t, "verify", "--signer", signer, "--sig", sig, "--hash", "sha3-256", env); strings.TrimSpace(out) != "OK" {
			t.Fatalf("verify=%q", out)
		}
		if _, _, code := runCLI(t, "verify", "--signer", signer, "--sig", sig, "--hash", "sha256", env); code != 3 {
			t.Fatalf("%s: verify with wrong hash: exit %d", alg, code)
		}
	}

	if _, _, code := runCLI(t, "sign", "--key-dir", keyDir, "--role", "archiver", in); code != 3 {
		t.Fatalf("signing a non-envelope must fail with 3")
	}
}

func TestStoreWithBackendFlags(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	in := writeFile(t, dir, "msg.txt", []byte("archived"))
	env := filepath.Join(dir, "msg.env")
	key := strings.Repeat("22", 32)
	mustRun(t, "seal", "--key-hex", key, "--out", env, in)

	backend := []string{"--backend", "localfs", "--localfs-dir", storeDir}
	id := strings.TrimSpace(mustRun(t, append([]string{"store", "put"}, append(backend, env)...)...))
	if id == "" {
		t.Fatalf("empty cid")
	}
	if _, _, code := runCLI(t, append([]string{"store", "put"}, append(backend, in)...)...); code == 0 {
		t.Fatalf("plain file must be rejected without --raw")
	}
	mustRun(t, append([]string{"store", "put", "--raw"}, append(backend, in)...)...)

	if out := mustRun(t, append([]string{"store", "has"}, append(backend, id)...)...); strings.TrimSpace(out) != "true" {
		t.Fatalf("has=%q", out)
	}
	got := filepath.Join(dir, "got.env")
	mustRun(t, append([]string{"store", "get", "--out", got}, append(backend, id)...)...)
	if pt := mustRun(t, "open", "--key-hex", key, got); pt != "archived" {
		t.Fatalf("open fetched envelope=%q", pt)
	}
	if out := mustRun(t, append([]string{"store", "inspect"}, append(backend, id)...)...); !strings.Contains(out, "mode:     aes-gcm") {
		t.Fatalf("store inspect=%q", out)
	}

	tarPath := filepath.Join(dir, "bundle.tar")
	mustRun(t, append([]string{"store", "export", "--out", tarPath, "--label", "latest=" + id}, append(backend, id)...)...)

	otherDir := filepath.Join(dir, "other")
	imported := mustRun(t, "store", "import", "--backend", "localfs", "--localfs-dir", otherDir, tarPath)
	if strings.TrimSpace(imported) != id {
		t.Fatalf("import printed %q want %q", imported, id)
	}

	if _, _, code := runCLI(t, "store", "has", "--backend", "localfs", "--localfs-dir", otherDir, "not-a-cid"); code != 2 {
		t.Fatalf("invalid cid: exit %d", code)
	}
	if out := mustRun(t, "store", "backends"); !strings.Contains(out, "sqlite") || !strings.Contains(out, "grpc") {
		t.Fatalf("backends=%q", out)
	}
}

func TestConfigFileDrivesSealAndStore(t *testing.T) {
	dir := t.TempDir()
	keyDir := filepath.Join(dir, "keys")
	dbPath := filepath.Join(dir, "envelopes.db")
	cfgPath := writeFile(t, dir, "sealkit.toml", []byte(`
mode = "aes-ccm"
key_dir = "`+filepath.ToSlash(keyDir)+`"
key_name = "team"
salt_hex = "c0ffee"

[store]
[[store.backends]]
name = "sqlite"
config = { sqlite-path = "`+filepath.ToSlash(dbPath)+`" }
`))
	t.Setenv(EnvConfig, cfgPath)

	mustRun(t, "key", "init", "--name", "team")
	in := writeFile(t, dir, "msg.txt", []byte("configured"))
	env := filepath.Join(dir, "msg.env")
	mustRun(t, "seal", "--out", env, in)

	if out := mustRun(t, "inspect", env); !strings.Contains(out, "aes-ccm") {
		t.Fatalf("config mode not applied: %q", out)
	}
	if pt := mustRun(t, "open", env); pt != "configured" {
		t.Fatalf("open=%q", pt)
	}
	if _, _, code := runCLI(t, "open", "--salt-hex", "", env); code != 3 {
		t.Fatalf("overriding salt must break authentication, exit %d", code)
	}

	id := strings.TrimSpace(mustRun(t, "store", "put", env))
	list := mustRun(t, "store", "list")
	if !strings.HasPrefix(list, id+"\t") {
		t.Fatalf("store list=%q want %s", list, id)
	}

	bad := writeFile(t, dir, "bad.toml", []byte(`mode = "rot13"`))
	if _, _, code := runCLI(t, "seal", "--config", bad, in); code != 1 {
		t.Fatalf("bad config: exit %d", code)
	}
}
