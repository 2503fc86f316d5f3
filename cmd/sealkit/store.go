package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/sealkit/storage"
	"xdao.co/sealkit/storage/bundle"
	"xdao.co/sealkit/storage/casregistry"
	"xdao.co/sealkit/storage/sqlitecas"
)

func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printStoreUsage(errOut)
		return 2
	}
	switch args[0] {
	case "put":
		return cmdStorePut(args[1:], out, errOut)
	case "get":
		return cmdStoreGet(args[1:], out, errOut)
	case "has":
		return cmdStoreHas(args[1:], out, errOut)
	case "inspect":
		return cmdStoreInspect(args[1:], out, errOut)
	case "list":
		return cmdStoreList(args[1:], out, errOut)
	case "export":
		return cmdStoreExport(args[1:], out, errOut)
	case "import":
		return cmdStoreImport(args[1:], out, errOut)
	case "backends":
		for _, b := range casregistry.List(casregistry.UsageCLI) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	default:
		fmt.Fprintf(errOut, "unknown store subcommand: %s\n", args[0])
		printStoreUsage(errOut)
		return 2
	}
}

func printStoreUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: sealkit store <subcommand> ...")
	fmt.Fprintln(w, "subcommands: put, get, has, inspect, list, export, import, backends")
}

// storeFlags selects the envelope store for one invocation.
type storeFlags struct {
	*common
	backend string
}

func newStoreFlagSet(name string, errOut io.Writer) (*flag.FlagSet, *storeFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := &storeFlags{common: addCommon(fs)}
	fs.StringVar(&sf.backend, "backend", "", "Store backend: "+strings.Join(casregistry.Names(casregistry.UsageCLI), ", ")+" (default [store] from config)")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)
	return fs, sf
}

func (sf *storeFlags) open() (storage.CAS, func() error, error) {
	var (
		cas     storage.CAS
		closeFn func() error
		err     error
	)
	if sf.backend != "" {
		cas, closeFn, err = casregistry.Open(sf.backend, casregistry.UsageCLI)
	} else {
		cfg, lerr := sf.load()
		if lerr != nil {
			return nil, nil, lerr
		}
		if !cfg.HasStore() {
			return nil, nil, errors.New("no store configured (set [store] in the config file or pass --backend)")
		}
		cas, closeFn, err = cfg.Store.Open(casregistry.UsageCLI, "")
	}
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return cas, closeFn, nil
}

func parseCID(s string) (cid.Cid, error) {
	id, err := cid.Decode(strings.TrimSpace(s))
	if err != nil || !id.Defined() {
		return cid.Undef, fmt.Errorf("invalid cid %q", s)
	}
	return id, nil
}

func cmdStorePut(args []string, out io.Writer, errOut io.Writer) int {
	fs, sf := newStoreFlagSet("store put", errOut)
	var raw bool
	fs.BoolVar(&raw, "raw", false, "Store the bytes even if they are not an envelope")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit store put [--raw] <file>")
		return 2
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", baseName(fs.Arg(0)), err)
		return 1
	}
	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	defer closeFn()

	ctx := context.Background()
	var id cid.Cid
	if raw {
		id, err = cas.Put(ctx, b)
	} else {
		id, _, err = storage.PutEnvelope(ctx, cas, b)
	}
	if err != nil {
		return report(errOut, "put", err)
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdStoreGet(args []string, out io.Writer, errOut io.Writer) int {
	fs, sf := newStoreFlagSet("store get", errOut)
	var outPath string
	fs.StringVar(&outPath, "out", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit store get [--out <file>] <cid>")
		return 2
	}
	id, err := parseCID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	defer closeFn()

	b, err := cas.Get(context.Background(), id)
	if err != nil {
		return report(errOut, "get", err)
	}
	if err := writeOutput(outPath, out, b); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdStoreHas(args []string, out io.Writer, errOut io.Writer) int {
	fs, sf := newStoreFlagSet("store has", errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit store has <cid>")
		return 2
	}
	id, err := parseCID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	defer closeFn()

	ok, err := cas.Has(context.Background(), id)
	if err != nil {
		return report(errOut, "has", err)
	}
	_, _ = fmt.Fprintln(out, ok)
	if !ok {
		return 1
	}
	return 0
}

func cmdStoreInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs, sf := newStoreFlagSet("store inspect", errOut)
	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "Print a JSON object")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit store inspect [--json] <cid>")
		return 2
	}
	id, err := parseCID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	defer closeFn()

	_, info, err := storage.GetEnvelope(context.Background(), cas, id)
	if err != nil {
		return report(errOut, "inspect", err)
	}
	if err := printInfo(out, id.String(), info, asJSON); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdStoreList(args []string, out io.Writer, errOut io.Writer) int {
	fs, sf := newStoreFlagSet("store list", errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	defer closeFn()

	if guard, ok := cas.(storage.EnvelopeCAS); ok {
		cas = guard.CAS
	}
	db, ok := cas.(*sqlitecas.CAS)
	if !ok {
		fmt.Fprintln(errOut, "store list requires a single sqlite backend")
		return 2
	}
	entries, err := db.List(context.Background())
	if err != nil {
		return report(errOut, "list", err)
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%d\t%s\n", e.CID, e.Size, e.StoredAt.UTC().Format(time.RFC3339))
	}
	return 0
}

func cmdStoreExport(args []string, out io.Writer, errOut io.Writer) int {
	fs, sf := newStoreFlagSet("store export", errOut)
	var outPath string
	var labels stringList
	var noIndex bool
	fs.StringVar(&outPath, "out", "", "Bundle file (default stdout)")
	fs.Var(&labels, "label", "Label as name=cid (repeatable)")
	fs.BoolVar(&noIndex, "no-index", false, "Omit index.json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: sealkit store export [--out <bundle.tar>] [--label name=cid ...] <cid> [<cid> ...]")
		return 2
	}
	ids := make([]cid.Cid, 0, fs.NArg())
	for _, s := range fs.Args() {
		id, err := parseCID(s)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		ids = append(ids, id)
	}
	opts := bundle.ExportOptions{IncludeIndex: !noIndex}
	if len(labels) > 0 {
		opts.Labels = make(map[string]cid.Cid, len(labels))
		for _, l := range labels {
			name, v, ok := strings.Cut(l, "=")
			if !ok || name == "" {
				fmt.Fprintf(errOut, "invalid --label %q: want name=cid\n", l)
				return 2
			}
			id, err := parseCID(v)
			if err != nil {
				fmt.Fprintf(errOut, "invalid --label %q: %v\n", l, err)
				return 2
			}
			opts.Labels[name] = id
		}
	}

	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	defer closeFn()

	w := out
	if outPath != "" && outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(errOut, "create %s: %v\n", baseName(outPath), err)
			return 1
		}
		defer f.Close()
		w = f
	}
	if err := bundle.Export(context.Background(), w, cas, ids, opts); err != nil {
		return report(errOut, "export", err)
	}
	return 0
}

func cmdStoreImport(args []string, out io.Writer, errOut io.Writer) int {
	fs, sf := newStoreFlagSet("store import", errOut)
	var ignoreUnknown bool
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip unknown archive entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: sealkit store import [--ignore-unknown] <bundle.tar>")
		return 2
	}
	var r io.Reader = os.Stdin
	if path := fs.Arg(0); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(errOut, "open %s: %v\n", baseName(path), err)
			return 1
		}
		defer f.Close()
		r = f
	}

	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	defer closeFn()

	ids, err := bundle.ImportWithOptions(context.Background(), r, cas, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
	for _, id := range ids {
		_, _ = fmt.Fprintln(out, id)
	}
	if err != nil {
		return report(errOut, "import", err)
	}
	return 0
}
