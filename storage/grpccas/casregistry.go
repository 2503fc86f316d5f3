package grpccas

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/sealkit/storage"
	"xdao.co/sealkit/storage/casregistry"
)

type clientConfig struct {
	target      string
	dialTimeout time.Duration
	timeout     time.Duration
	maxMsgBytes int
}

var flags clientConfig

func (c clientConfig) open() (storage.CAS, func() error, error) {
	target := strings.TrimSpace(c.target)
	if target == "" {
		return nil, nil, fmt.Errorf("missing grpc target")
	}
	client, err := Dial(target, DialOptions{Timeout: c.dialTimeout, MaxMsgBytes: c.maxMsgBytes})
	if err != nil {
		return nil, nil, err
	}
	client.Timeout = c.timeout
	return client, client.Close, nil
}

func configFromMap(m map[string]string) (clientConfig, error) {
	c := clientConfig{target: m["grpc-target"], dialTimeout: 5 * time.Second}
	var err error
	if v := m["grpc-dial-timeout"]; v != "" {
		if c.dialTimeout, err = time.ParseDuration(v); err != nil {
			return c, fmt.Errorf("grpc-dial-timeout: %w", err)
		}
	}
	if v := m["grpc-timeout"]; v != "" {
		if c.timeout, err = time.ParseDuration(v); err != nil {
			return c, fmt.Errorf("grpc-timeout: %w", err)
		}
	}
	if v := m["grpc-max-msg-bytes"]; v != "" {
		if c.maxMsgBytes, err = strconv.Atoi(v); err != nil {
			return c, fmt.Errorf("grpc-max-msg-bytes: %w", err)
		}
	}
	return c, nil
}

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "gRPC envelope store client (talks to sealkit-casd)",
		Usage:       casregistry.UsageCLI,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flags.target, "grpc-target", "", "gRPC target host:port (for --backend=grpc)")
			fs.DurationVar(&flags.dialTimeout, "grpc-dial-timeout", 5*time.Second, "Dial timeout (for --backend=grpc)")
			fs.DurationVar(&flags.timeout, "grpc-timeout", 0, "Per-RPC timeout (for --backend=grpc)")
			fs.IntVar(&flags.maxMsgBytes, "grpc-max-msg-bytes", 0, "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults")
		},
		Open: func() (storage.CAS, func() error, error) {
			return flags.open()
		},
		OpenConfig: func(m map[string]string) (storage.CAS, func() error, error) {
			c, err := configFromMap(m)
			if err != nil {
				return nil, nil, err
			}
			return c.open()
		},
	})
}
