// Package casconfig opens envelope stores described by a config file.
//
// A config lists casregistry backends in read order, how writes fan out
// across them, and whether the resulting store accepts only sealkit
// envelopes. The same shape is used standalone (JSON or TOML file) and as the
// [store] table of the sealkit config:
//
//	write_policy = "all"
//	envelopes_only = true
//
//	[[backends]]
//	name = "localfs"
//	config = { localfs-dir = "${HOME}/.sealkit/envelopes" }
//
//	[[backends]]
//	name = "sqlite"
//	id = "db"
//	config = { sqlite-path = "/var/lib/sealkit/envelopes.db" }
//
// Backend config values mirror the backend's flag names and may reference
// environment variables as $VAR or ${VAR}. Backends still have to be linked
// into the binary with a blank import.
package casconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"xdao.co/sealkit/storage"
	"xdao.co/sealkit/storage/casregistry"
)

// WritePolicy selects how Put reaches the configured backends.
type WritePolicy string

const (
	// WriteFirst writes to the first backend only; reads fall back in order.
	WriteFirst WritePolicy = "first"
	// WriteAll writes to every backend and requires matching CIDs.
	WriteAll WritePolicy = "all"
)

type Config struct {
	WritePolicy   WritePolicy     `json:"write_policy,omitempty" toml:"write_policy"`
	EnvelopesOnly bool            `json:"envelopes_only,omitempty" toml:"envelopes_only"`
	Backends      []BackendConfig `json:"backends" toml:"backends"`
}

type BackendConfig struct {
	// Name is the casregistry backend to open, e.g. "localfs".
	Name string `json:"name" toml:"name"`
	// ID names this instance in logs and replication results. Defaults to Name.
	ID     string            `json:"id,omitempty" toml:"id"`
	Config map[string]string `json:"config,omitempty" toml:"config"`
}

// Alias is ID, or Name when no ID is set.
func (b BackendConfig) Alias() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// LoadFile reads a store config. Files ending in .toml are TOML; anything
// else is JSON. Unknown keys are rejected in both forms.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("casconfig: empty config path")
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("casconfig: %w", err)
		}
		if undec := meta.Undecoded(); len(undec) > 0 {
			return Config{}, fmt.Errorf("casconfig: unknown key %q", undec[0].String())
		}
	} else {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("casconfig: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks the config without consulting the backend registry.
func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("casconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for i, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("casconfig: backends[%d]: name is required", i)
		}
		if _, dup := seen[b.Alias()]; dup {
			return fmt.Errorf("casconfig: duplicate backend id %q", b.Alias())
		}
		seen[b.Alias()] = struct{}{}
	}
	switch c.WritePolicy {
	case "", WriteFirst, WriteAll:
		return nil
	default:
		return fmt.Errorf("casconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Check validates c and confirms every backend is linked into this binary
// and allowed under usage.
func (c Config) Check(usage casregistry.Usage) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, b := range c.Backends {
		if err := casregistry.Check(b.Name, usage); err != nil {
			return fmt.Errorf("casconfig: backend %q: %w (available: %s)",
				b.Alias(), err, strings.Join(casregistry.Names(usage), ", "))
		}
	}
	return nil
}

// ordered returns the backends with preferred moved to the front.
func (c Config) ordered(preferred string) ([]BackendConfig, error) {
	out := append([]BackendConfig(nil), c.Backends...)
	if preferred == "" {
		return out, nil
	}
	for i, b := range out {
		if b.Name == preferred || b.ID == preferred {
			copy(out[1:i+1], out[:i])
			out[0] = b
			return out, nil
		}
	}
	return nil, fmt.Errorf("casconfig: preferred backend %q not found in config", preferred)
}

func expand(cfg map[string]string) map[string]string {
	out := make(map[string]string, len(cfg))
	for k, v := range cfg {
		out[k] = os.ExpandEnv(v)
	}
	return out
}

type closers []func() error

func (cs closers) closeAll() error {
	var first error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens every backend and composes them per WritePolicy. A non-empty
// preferred (name or id) is moved first so it takes writes under WriteFirst.
// With EnvelopesOnly the result is wrapped in storage.EnvelopeCAS.
func (c Config) Open(usage casregistry.Usage, preferred string) (storage.CAS, func() error, error) {
	if err := c.Check(usage); err != nil {
		return nil, nil, err
	}
	order, err := c.ordered(preferred)
	if err != nil {
		return nil, nil, err
	}

	named := make([]storage.NamedCAS, 0, len(order))
	var cs closers
	for _, b := range order {
		cas, closeFn, err := casregistry.OpenWithConfig(b.Name, usage, expand(b.Config))
		if err != nil {
			_ = cs.closeAll()
			return nil, nil, fmt.Errorf("casconfig: open %q: %w", b.Alias(), err)
		}
		named = append(named, storage.NamedCAS{Name: b.Alias(), CAS: cas})
		if closeFn != nil {
			cs = append(cs, closeFn)
		}
	}

	var out storage.CAS
	switch {
	case len(named) == 1:
		out = named[0].CAS
	case c.WritePolicy == WriteAll:
		out = storage.ReplicatingCAS{Backends: named}
	default:
		adapters := make([]storage.CAS, 0, len(named))
		for _, n := range named {
			adapters = append(adapters, n.CAS)
		}
		out = storage.MultiCAS{Adapters: adapters}
	}
	if c.EnvelopesOnly {
		out = storage.EnvelopeCAS{CAS: out}
	}
	return out, cs.closeAll, nil
}
