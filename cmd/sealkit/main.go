package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"xdao.co/sealkit/config"
	"xdao.co/sealkit/faults"

	_ "xdao.co/sealkit/storage/grpccas"
	_ "xdao.co/sealkit/storage/localfs"
	_ "xdao.co/sealkit/storage/sqlitecas"
)

// EnvConfig names the config file used when --config is not given.
const EnvConfig = "SEALKIT_CONFIG"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "seal":
		return cmdSeal(args[1:], out, errOut)
	case "open":
		return cmdOpen(args[1:], out, errOut)
	case "inspect":
		return cmdInspect(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "sealkit: authenticated envelope toolkit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sealkit key init --name <name> [--size 32] [--hex <key>] [--force]")
	fmt.Fprintln(w, "  sealkit key list")
	fmt.Fprintln(w, "  sealkit key export --name <name>")
	fmt.Fprintln(w, "  sealkit key signer --name <name> --role <role> [--alg ed25519|dilithium3]")
	fmt.Fprintln(w, "  sealkit seal [--mode aes-gcm|aes-ccm|chacha20] [--layers N] [--key <name> | --key-hex <hex>] [--aad <text>] [--out <file>] <file>")
	fmt.Fprintln(w, "  sealkit open [--key <name> | --key-hex <hex>] [--aad <text>] [--out <file>] <file>")
	fmt.Fprintln(w, "  sealkit inspect [--json] <file>")
	fmt.Fprintln(w, "  sealkit sign --key <name> --role <role> [--alg ed25519|dilithium3] [--hash sha256|sha512|sha3-256] <file>")
	fmt.Fprintln(w, "  sealkit verify --signer <alg:base64> --sig <base64> [--hash sha256|sha512|sha3-256] <file>")
	fmt.Fprintln(w, "  sealkit store put [--raw] <file>")
	fmt.Fprintln(w, "  sealkit store get [--out <file>] <cid>")
	fmt.Fprintln(w, "  sealkit store has <cid>")
	fmt.Fprintln(w, "  sealkit store inspect <cid>")
	fmt.Fprintln(w, "  sealkit store export --out <bundle.tar> [--label name=cid ...] <cid> [<cid> ...]")
	fmt.Fprintln(w, "  sealkit store import <bundle.tar>")
	fmt.Fprintln(w, "  sealkit store backends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - every command accepts --config <file.toml> (default $"+EnvConfig+") and --key-dir <dir>")
	fmt.Fprintln(w, "  - keys live under ~/.sealkit/keys/<name>/master.key unless key_dir is configured")
	fmt.Fprintln(w, "  - store commands use [store] from the config file, or --backend with backend flags")
	fmt.Fprintln(w, "  - <file> may be - for stdin; output defaults to stdout")
	fmt.Fprintln(w, "  - layered envelopes (--layers > 1) can be inspected and stored but not opened")
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// common holds the flags shared by every subcommand.
type common struct {
	configPath string
	keyDir     string
}

func addCommon(fs *flag.FlagSet) *common {
	c := &common{}
	fs.StringVar(&c.configPath, "config", "", "sealkit TOML config file (default $"+EnvConfig+")")
	fs.StringVar(&c.keyDir, "key-dir", "", "Key store directory (overrides key_dir)")
	return c
}

func (c *common) load() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if c.keyDir != "" {
		cfg.KeyDir = c.keyDir
	}
	return cfg, nil
}

// isSet reports whether name was given on the command line.
func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, out io.Writer, b []byte) error {
	if path == "" || path == "-" {
		_, err := out.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// exitCode maps an error to the CLI exit status. Errors raised by a
// malformed or unauthenticated envelope exit with 3.
func exitCode(err error) int {
	var fe *faults.Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case faults.KindAuthentication, faults.KindMalformed:
			return 3
		}
	}
	return 1
}

func report(errOut io.Writer, what string, err error) int {
	var fe *faults.Error
	if errors.As(err, &fe) {
		fmt.Fprintf(errOut, "%s: %v (code %d)\n", what, err, fe.Code)
	} else {
		fmt.Fprintf(errOut, "%s: %v\n", what, err)
	}
	return exitCode(err)
}

func baseName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}
