package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"

	"xdao.co/sealkit/keys"
)

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "signer":
		return cmdKeySigner(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: sealkit key <subcommand> ...")
	fmt.Fprintln(w, "subcommands: init, list, export, signer")
}

func openKeyStore(c *common, errOut io.Writer) (*keys.KeyStore, bool) {
	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return nil, false
	}
	ks, err := cfg.KeyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, false
	}
	return ks, true
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)
	c := addCommon(fs)

	var name string
	var size int
	var keyHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name")
	fs.IntVar(&size, "size", 32, "Random key size in bytes (16, 24 or 32)")
	fs.StringVar(&keyHex, "hex", "", "Import an existing key instead of generating one")
	fs.BoolVar(&force, "force", false, "Overwrite an existing key")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if keyHex == "" && size != 16 && size != 24 && size != 32 {
		fmt.Fprintf(errOut, "invalid --size %d: want 16, 24 or 32\n", size)
		return 2
	}
	ks, ok := openKeyStore(c, errOut)
	if !ok {
		return 1
	}

	var entry keys.KeyEntry
	var err error
	if keyHex != "" {
		entry, err = ks.Import(name, keyHex, force)
	} else {
		entry, err = ks.Generate(name, size, force)
	}
	if err != nil {
		if errors.Is(err, keys.ErrKeyExists) {
			fmt.Fprintf(errOut, "key %q already exists (use --force to overwrite)\n", name)
			return 1
		}
		return report(errOut, "write key", err)
	}
	fmt.Fprintf(out, "Created key: %s (%d bytes, id %s)\n", entry.Name, entry.Size, entry.ID)
	fmt.Fprintf(out, "Stored at: %s\n", entry.Path)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	c := addCommon(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, ok := openKeyStore(c, errOut)
	if !ok {
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%d\t%s\n", e.Name, e.Size, e.ID)
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	c := addCommon(fs)

	var name string
	fs.StringVar(&name, "name", "", "Key name")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, ok := openKeyStore(c, errOut)
	if !ok {
		return 1
	}
	key, err := ks.Load(name)
	if err != nil {
		return report(errOut, "load key", err)
	}
	defer key.Destroy()
	b, err := key.Bytes()
	if err != nil {
		return report(errOut, "load key", err)
	}
	_, _ = fmt.Fprintln(out, hex.EncodeToString(b))
	return 0
}

func cmdKeySigner(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key signer", flag.ContinueOnError)
	fs.SetOutput(errOut)
	c := addCommon(fs)

	var name string
	var role string
	var alg string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Signing role (e.g. producer, archiver)")
	fs.StringVar(&alg, "alg", keys.AlgEd25519, "Signature algorithm: ed25519 or dilithium3")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
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
	ks, ok := openKeyStore(c, errOut)
	if !ok {
		return 1
	}
	seed, err := ks.RoleSeed(name, role)
	if err != nil {
		return report(errOut, "derive role seed", err)
	}
	defer keys.Wipe(seed)
	signer, err := keys.SignerKey(alg, seed)
	if err != nil {
		return report(errOut, "signer key", err)
	}
	_, _ = fmt.Fprintln(out, signer)
	return 0
}
