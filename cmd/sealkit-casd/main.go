package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"xdao.co/sealkit/config"
	"xdao.co/sealkit/internal/logging"
	"xdao.co/sealkit/storage"
	"xdao.co/sealkit/storage/casregistry"

	_ "xdao.co/sealkit/storage/localfs"
	_ "xdao.co/sealkit/storage/sqlitecas"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath    string
	listen        string
	backend       string
	listBackends  bool
	maxMsgBytes   int
	envelopesOnly bool
}

func newFlagSet(errOut io.Writer) (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet("sealkit-casd", flag.ContinueOnError)
	fs.SetOutput(errOut)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "sealkit TOML config file ([daemon] and [store] sections)")
	fs.StringVar(&o.listen, "listen", config.DefaultListen, "listen address")
	fs.StringVar(&o.backend, "backend", "", "Store backend name (default [store] from config)")
	fs.BoolVar(&o.listBackends, "list-backends", false, "List supported backends and exit")
	fs.IntVar(&o.maxMsgBytes, "max-msg-bytes", config.DefaultMaxMsgBytes, "Max gRPC message size in bytes")
	fs.BoolVar(&o.envelopesOnly, "envelopes-only", true, "Reject Put payloads that are not sealkit envelopes")

	casregistry.RegisterFlags(fs, casregistry.UsageDaemon)
	return fs, o
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs, o := newFlagSet(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
	}
	applyFlags(fs, &cfg, *o)

	log := logging.Configure("sealkit-casd", logging.ProfileRuntime, errOut)

	cas, closeFn, err := openStore(cfg, o.backend)
	if err != nil {
		log.Error().Err(err).Msg("open store")
		return 2
	}
	if closeFn != nil {
		defer func() {
			if err := closeFn(); err != nil {
				log.Warn().Err(err).Msg("close store")
			}
		}()
	}

	lis, err := net.Listen("tcp", cfg.Daemon.Listen)
	if err != nil {
		log.Error().Err(err).Str("listen", cfg.Daemon.Listen).Msg("listen")
		return 1
	}
	if err := serve(ctx, lis, cas, cfg.Daemon, log); err != nil {
		log.Error().Err(err).Msg("serve")
		return 1
	}
	return 0
}

// applyFlags lets explicit flags win over the [daemon] section.
func applyFlags(fs *flag.FlagSet, cfg *config.Config, o options) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Daemon.Listen = o.listen
		case "max-msg-bytes":
			cfg.Daemon.MaxMsgBytes = o.maxMsgBytes
		case "envelopes-only":
			cfg.Daemon.EnvelopesOnly = o.envelopesOnly
		}
	})
}

func openStore(cfg config.Config, backend string) (storage.CAS, func() error, error) {
	if backend != "" {
		return casregistry.Open(backend, casregistry.UsageDaemon)
	}
	if !cfg.HasStore() {
		return nil, nil, errors.New("no store configured (set [store] in the config file or pass --backend)")
	}
	return cfg.Store.Open(casregistry.UsageDaemon, cfg.Daemon.Backend)
}

// stopWhenDone calls stop once ctx is cancelled. It returns without calling
// stop if done closes first.
func stopWhenDone(ctx context.Context, done <-chan struct{}, stop func()) {
	select {
	case <-ctx.Done():
		stop()
	case <-done:
	}
}

func serve(ctx context.Context, lis net.Listener, cas storage.CAS, dc config.DaemonConfig, log zerolog.Logger) error {
	s := newServer(cas, dc, log)

	done := make(chan struct{})
	defer close(done)
	go stopWhenDone(ctx, done, func() {
		log.Info().Msg("shutting down")
		s.GracefulStop()
	})

	log.Info().
		Str("listen", lis.Addr().String()).
		Bool("envelopes_only", dc.EnvelopesOnly).
		Int("max_msg_bytes", dc.MaxMsgBytes).
		Msg("sealkit-casd listening")
	return s.Serve(lis)
}
