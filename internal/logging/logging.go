// Package logging configures the process-wide zerolog logger for sealkit
// binaries.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "SEALKIT_LOG_LEVEL"
	EnvLogFormat  = "SEALKIT_LOG_FORMAT"
	EnvLogNoColor = "SEALKIT_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

type Config struct {
	Level   zerolog.Level
	Format  Format
	NoColor bool
	Out     io.Writer
}

var (
	configureOnce sync.Once
	logger        = zerolog.Nop()
)

// ConfigureRuntime configures logging for binaries writing to stderr.
func ConfigureRuntime(app string) zerolog.Logger {
	return Configure(app, ProfileRuntime, os.Stderr)
}

// Configure builds the logger once per process; later calls return the
// logger built by the first one.
func Configure(app string, profile Profile, out io.Writer) zerolog.Logger {
	configureOnce.Do(func() {
		logger = FromEnv(app, profile, out)
		log.Logger = logger
	})
	return logger
}

// FromEnv builds a logger for profile with the SEALKIT_LOG_* overrides
// applied, without touching process state.
func FromEnv(app string, profile Profile, out io.Writer) zerolog.Logger {
	cfg := defaultConfig(profile)
	cfg.Out = out
	applyEnvOverrides(&cfg)
	return New(app, cfg)
}

// Logger returns the configured process logger, or a no-op logger before
// Configure has run.
func Logger() zerolog.Logger { return logger }

// New builds a logger from cfg without touching process state.
func New(app string, cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}
	return zerolog.New(out).Level(cfg.Level).With().Timestamp().Str("app", app).Logger()
}

func defaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Format: FormatConsole, NoColor: true}
	default:
		return Config{Level: zerolog.InfoLevel, Format: FormatConsole}
	}
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))) {
	case "json":
		cfg.Format = FormatJSON
	case "console", "text":
		cfg.Format = FormatConsole
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel maps a level name to a zerolog level. ok is false for empty or
// unknown input.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
