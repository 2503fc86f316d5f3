// Package config loads the sealkit TOML configuration shared by the CLI and
// the storage daemon.
//
//	mode     = "aes-gcm"
//	layers   = 1
//	key_dir  = "/home/me/.sealkit/keys"
//	key_name = "default"
//	salt_hex = ""
//	mask_hex = ""
//
//	[store]
//	write_policy = "first"
//	[[store.backends]]
//	name   = "localfs"
//	config = { localfs-dir = "/var/lib/sealkit/envelopes" }
//
//	[daemon]
//	listen         = "127.0.0.1:7701"
//	backend        = ""
//	max_msg_bytes  = 67108864
//	envelopes_only = true
package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/BurntSushi/toml"

	"xdao.co/sealkit/aead"
	"xdao.co/sealkit/faults"
	"xdao.co/sealkit/keys"
	"xdao.co/sealkit/storage/casconfig"
)

const (
	DefaultMode        = "aes-gcm"
	DefaultKeyName     = "default"
	DefaultListen      = "127.0.0.1:7701"
	DefaultMaxMsgBytes = 64 << 20
)

type Config struct {
	Mode    string
	Layers  int
	KeyDir  string
	KeyName string
	Salt    []byte
	Mask    []byte
	Store   casconfig.Config
	Daemon  DaemonConfig
}

type DaemonConfig struct {
	Listen        string
	Backend       string
	MaxMsgBytes   int
	EnvelopesOnly bool
}

type fileConfig struct {
	Mode    string           `toml:"mode"`
	Layers  int              `toml:"layers"`
	KeyDir  string           `toml:"key_dir"`
	KeyName string           `toml:"key_name"`
	SaltHex string           `toml:"salt_hex"`
	MaskHex string           `toml:"mask_hex"`
	Store   casconfig.Config `toml:"store"`
	Daemon  struct {
		Listen        string `toml:"listen"`
		Backend       string `toml:"backend"`
		MaxMsgBytes   int    `toml:"max_msg_bytes"`
		EnvelopesOnly bool   `toml:"envelopes_only"`
	} `toml:"daemon"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:    DefaultMode,
		Layers:  1,
		KeyName: DefaultKeyName,
		Daemon: DaemonConfig{
			Listen:        DefaultListen,
			MaxMsgBytes:   DefaultMaxMsgBytes,
			EnvelopesOnly: true,
		},
	}
}

// Load reads path on top of Default. Keys absent from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load sealkit config: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("load sealkit config: unknown key %q", undec[0].String())
	}

	if meta.IsDefined("mode") {
		cfg.Mode = strings.TrimSpace(raw.Mode)
	}
	if meta.IsDefined("layers") {
		cfg.Layers = raw.Layers
	}
	if meta.IsDefined("key_dir") {
		cfg.KeyDir = strings.TrimSpace(raw.KeyDir)
	}
	if meta.IsDefined("key_name") {
		cfg.KeyName = strings.TrimSpace(raw.KeyName)
	}
	if meta.IsDefined("salt_hex") {
		if cfg.Salt, err = decodeHex(raw.SaltHex); err != nil {
			return Config{}, fmt.Errorf("parse salt_hex: %w", err)
		}
	}
	if meta.IsDefined("mask_hex") {
		mask, err := decodeHex(raw.MaskHex)
		if err != nil {
			return Config{}, faults.Wrap(faults.InvalidMask, "parse mask_hex", err)
		}
		cfg.Mask = mask
	}
	if meta.IsDefined("store") {
		cfg.Store = raw.Store
	}
	if meta.IsDefined("daemon", "listen") {
		cfg.Daemon.Listen = strings.TrimSpace(raw.Daemon.Listen)
	}
	if meta.IsDefined("daemon", "backend") {
		cfg.Daemon.Backend = strings.TrimSpace(raw.Daemon.Backend)
	}
	if meta.IsDefined("daemon", "max_msg_bytes") {
		cfg.Daemon.MaxMsgBytes = raw.Daemon.MaxMsgBytes
	}
	if meta.IsDefined("daemon", "envelopes_only") {
		cfg.Daemon.EnvelopesOnly = raw.Daemon.EnvelopesOnly
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func (c Config) Validate() error {
	if _, err := aead.ResolveMode(c.Mode); err != nil {
		return fmt.Errorf("config: mode: %w", err)
	}
	if c.Layers < 0 {
		return fmt.Errorf("config: layers must be >= 0, got %d", c.Layers)
	}
	if c.KeyName != "" {
		if err := keys.CheckKeyName(c.KeyName); err != nil {
			return fmt.Errorf("config: key_name: %w", err)
		}
	}
	if len(c.Store.Backends) > 0 {
		if err := c.Store.Validate(); err != nil {
			return fmt.Errorf("config: store: %w", err)
		}
	}
	if c.Daemon.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Daemon.Listen); err != nil {
			return fmt.Errorf("config: daemon.listen: %w", err)
		}
	}
	if c.Daemon.MaxMsgBytes < 0 {
		return fmt.Errorf("config: daemon.max_msg_bytes must be >= 0")
	}
	return nil
}

// SealMode resolves Mode.
func (c Config) SealMode() (aead.Mode, error) {
	return aead.ResolveMode(c.Mode)
}

// Params returns the envelope parameters configured for every operation.
func (c Config) Params() aead.Params {
	return aead.Params{Salt: c.Salt, Mask: c.Mask}
}

// HasStore reports whether a [store] section configured any backend.
func (c Config) HasStore() bool { return len(c.Store.Backends) > 0 }

// KeyStore opens the configured key directory, or the default one when
// key_dir is unset.
func (c Config) KeyStore() (*keys.KeyStore, error) {
	return keys.CreateKeyStore(c.KeyDir)
}
