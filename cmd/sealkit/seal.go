package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"xdao.co/sealkit/aead"
	"xdao.co/sealkit/cidutil"
	"xdao.co/sealkit/config"
	"xdao.co/sealkit/internal/logging"
	"xdao.co/sealkit/keys"
)

// cryptoFlags are the flags shared by seal and open.
type cryptoFlags struct {
	*common
	keyName string
	keyHex  string
	aad     string
	aadHex  string
	saltHex string
	maskHex string
	out     string

	// static holds a --key-hex key until close.
	static *keys.StaticGetter
}

// close wipes any key taken from --key-hex.
func (f *cryptoFlags) close() {
	if f.static != nil {
		f.static.Destroy()
	}
}

func addCryptoFlags(fs *flag.FlagSet) *cryptoFlags {
	f := &cryptoFlags{common: addCommon(fs)}
	fs.StringVar(&f.keyName, "key", "", "Key store entry (default key_name from config)")
	fs.StringVar(&f.keyHex, "key-hex", "", "Use this hex master key instead of the key store")
	fs.StringVar(&f.aad, "aad", "", "Additional authenticated data (text)")
	fs.StringVar(&f.aadHex, "aad-hex", "", "Additional authenticated data (hex)")
	fs.StringVar(&f.saltHex, "salt-hex", "", "HKDF salt (overrides salt_hex)")
	fs.StringVar(&f.maskHex, "mask-hex", "", "Wire mask (overrides mask_hex)")
	fs.StringVar(&f.out, "out", "", "Output file (default stdout)")
	return f
}

func (f *cryptoFlags) getter(cfg config.Config) (keys.Getter, error) {
	if f.keyHex != "" {
		raw, err := keys.ParseKeyHex(f.keyHex)
		if err != nil {
			return nil, err
		}
		f.static = keys.Static(raw)
		return f.static, nil
	}
	name := f.keyName
	if name == "" {
		name = cfg.KeyName
	}
	if err := keys.CheckKeyName(name); err != nil {
		return nil, err
	}
	ks, err := cfg.KeyStore()
	if err != nil {
		return nil, err
	}
	return ks.Getter(name), nil
}

func (f *cryptoFlags) params(fs *flag.FlagSet, cfg config.Config) (aead.Params, error) {
	p := cfg.Params()
	var err error
	if isSet(fs, "salt-hex") {
		if p.Salt, err = hex.DecodeString(f.saltHex); err != nil {
			return p, fmt.Errorf("invalid --salt-hex: %w", err)
		}
	}
	if isSet(fs, "mask-hex") {
		if p.Mask, err = hex.DecodeString(f.maskHex); err != nil {
			return p, fmt.Errorf("invalid --mask-hex: %w", err)
		}
	}
	switch {
	case f.aadHex != "":
		if p.AAD, err = hex.DecodeString(f.aadHex); err != nil {
			return p, fmt.Errorf("invalid --aad-hex: %w", err)
		}
	case f.aad != "":
		p.AAD = []byte(f.aad)
	}
	return p, nil
}

// prepare loads config and builds the sealer and params for one invocation.
func (f *cryptoFlags) prepare(fs *flag.FlagSet, errOut io.Writer) (config.Config, *aead.Sealer, aead.Params, int) {
	cfg, err := f.load()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return cfg, nil, aead.Params{}, 1
	}
	p, err := f.params(fs, cfg)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return cfg, nil, aead.Params{}, 2
	}
	g, err := f.getter(cfg)
	if err != nil {
		return cfg, nil, aead.Params{}, report(errOut, "key", err)
	}
	log := logging.FromEnv("sealkit", logging.ProfileRuntime, errOut)
	return cfg, aead.NewSealer(g, aead.WithLogger(log)), p, 0
}

func cmdSeal(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("seal", flag.ContinueOnError)
	fs.SetOutput(errOut)
	f := addCryptoFlags(fs)

	var mode string
	var layers int
	fs.StringVar(&mode, "mode", "", "Cipher mode: aes-gcm, aes-ccm or chacha20 (default mode from config)")
	fs.IntVar(&layers, "layers", 1, "Layer count; values above 1 are clamped to [4, 19]")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit seal [flags] <file>")
		return 2
	}
	cfg, sealer, p, code := f.prepare(fs, errOut)
	if sealer == nil {
		return code
	}
	defer f.close()
	if !isSet(fs, "mode") {
		mode = cfg.Mode
	}
	if !isSet(fs, "layers") {
		layers = cfg.Layers
	}
	m, err := aead.ResolveMode(mode)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --mode: %v\n", err)
		return 2
	}

	pt, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", baseName(fs.Arg(0)), err)
		return 1
	}

	ctx := context.Background()
	var env []byte
	if layers > 1 {
		env, err = sealer.SealLayered(ctx, m, pt, layers, p)
	} else {
		env, err = sealer.Seal(ctx, m, pt, p)
	}
	if err != nil {
		return report(errOut, "seal", err)
	}
	if err := writeOutput(f.out, out, env); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdOpen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(errOut)
	f := addCryptoFlags(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit open [flags] <file>")
		return 2
	}
	_, sealer, p, code := f.prepare(fs, errOut)
	if sealer == nil {
		return code
	}
	defer f.close()
	env, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", baseName(fs.Arg(0)), err)
		return 1
	}
	opened, err := sealer.Open(context.Background(), env, p)
	if err != nil {
		return report(errOut, "open", err)
	}
	if err := writeOutput(f.out, out, opened.Plaintext); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

// inspectReport is the JSON form printed by inspect --json.
type inspectReport struct {
	CID string `json:"cid"`
	*aead.Info
}

func printInfo(out io.Writer, id string, info *aead.Info, asJSON bool) error {
	if asJSON {
		b, err := json.Marshal(inspectReport{CID: id, Info: info})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	kind := "single"
	if info.Option == aead.OptionLayered {
		kind = "layered"
	}
	fmt.Fprintf(out, "cid:      %s\n", id)
	fmt.Fprintf(out, "kind:     %s\n", kind)
	fmt.Fprintf(out, "layers:   %d\n", info.Layers)
	fmt.Fprintf(out, "version:  %d\n", info.Version)
	fmt.Fprintf(out, "mode:     %s (agid 0x%02x)\n", info.Mode, uint8(info.Algorithm))
	fmt.Fprintf(out, "key_len:  %d\n", info.KeyLen)
	fmt.Fprintf(out, "iv_len:   %d\n", info.IVLen)
	fmt.Fprintf(out, "data_len: %d\n", info.DataLen)
	_, err := fmt.Fprintf(out, "size:     %d\n", info.Size)
	return err
}

func cmdInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "Print a JSON object")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit inspect [--json] <file>")
		return 2
	}
	env, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", baseName(fs.Arg(0)), err)
		return 1
	}
	info, err := aead.Inspect(env)
	if err != nil {
		return report(errOut, "inspect", err)
	}
	if err := printInfo(out, cidutil.String(env), info, asJSON); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}
