package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatalf("unknown level accepted")
	}
	if _, ok := ParseLevel(""); ok {
		t.Fatalf("empty level accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogNoColor, "true")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.WarnLevel || cfg.Format != FormatJSON || !cfg.NoColor {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	t.Setenv(EnvLogLevel, "bogus")
	t.Setenv(EnvLogNoColor, "maybe")
	cfg = defaultConfig(ProfileTest)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.DebugLevel || !cfg.NoColor {
		t.Fatalf("invalid overrides must be ignored: %+v", cfg)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("sealkit-test", Config{Level: zerolog.InfoLevel, Format: FormatJSON, Out: &buf})
	l.Debug().Msg("hidden")
	l.Info().Str("cid", "bafk").Msg("stored")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("json: %v", err)
	}
	if ev["app"] != "sealkit-test" || ev["cid"] != "bafk" || ev["message"] != "stored" {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New("sealkit-test", Config{Level: zerolog.DebugLevel, Format: FormatConsole, NoColor: true, Out: &buf})
	l.Debug().Msg("regenerated")
	if !strings.Contains(buf.String(), "regenerated") || strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}

func TestFromEnvHonoursFormat(t *testing.T) {
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogLevel, "error")
	var buf bytes.Buffer
	l := FromEnv("sealkit-test", ProfileRuntime, &buf)
	l.Info().Msg("dropped")
	l.Error().Msg("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
