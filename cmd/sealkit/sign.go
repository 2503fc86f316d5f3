package main

import (
	"flag"
	"fmt"
	"io"

	"xdao.co/sealkit/aead"
	"xdao.co/sealkit/keys"
)

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)
	c := addCommon(fs)

	var name string
	var role string
	var alg string
	var hashAlg string

	fs.StringVar(&name, "key", "", "Key store entry (default key_name from config)")
	fs.StringVar(&role, "role", "", "Signing role; the signing seed is derived from the key and role")
	fs.StringVar(&alg, "alg", keys.AlgEd25519, "Signature algorithm: ed25519 or dilithium3")
	fs.StringVar(&hashAlg, "hash", "sha256", "Digest: sha256, sha512 or sha3-256")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit sign --role <role> [flags] <file>")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 1
	}
	if name == "" {
		name = cfg.KeyName
	}
	ks, err := cfg.KeyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	env, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", baseName(fs.Arg(0)), err)
		return 1
	}
	// Only envelopes are attested; the framing must parse.
	if _, err := aead.Inspect(env); err != nil {
		return report(errOut, "sign", err)
	}

	seed, err := ks.RoleSeed(name, role)
	if err != nil {
		return report(errOut, "derive role seed", err)
	}
	defer keys.Wipe(seed)
	sig, err := keys.SignEnvelope(env, alg, hashAlg, seed)
	if err != nil {
		return report(errOut, "sign", err)
	}
	_, _ = fmt.Fprintln(out, sig)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var signer string
	var sig string
	var hashAlg string

	fs.StringVar(&signer, "signer", "", "Signer key as printed by 'sealkit key signer'")
	fs.StringVar(&sig, "sig", "", "Base64 signature as printed by 'sealkit sign'")
	fs.StringVar(&hashAlg, "hash", "sha256", "Digest: sha256, sha512 or sha3-256")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit verify --signer <alg:base64> --sig <base64> <file>")
		return 2
	}
	if signer == "" {
		fmt.Fprintln(errOut, "missing --signer")
		return 2
	}
	if sig == "" {
		fmt.Fprintln(errOut, "missing --sig")
		return 2
	}
	env, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", baseName(fs.Arg(0)), err)
		return 1
	}
	if err := keys.VerifyEnvelope(env, signer, hashAlg, sig); err != nil {
		return report(errOut, "invalid", err)
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}
