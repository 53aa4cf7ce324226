// File: internal/logging/config_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Errorf("parseLevel(%q) = %v, %v", raw, got, ok)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Error("unknown level accepted")
	}
}

func TestParseBool(t *testing.T) {
	if v, ok := parseBool("true"); !ok || !v {
		t.Error("true not parsed")
	}
	if _, ok := parseBool(""); ok {
		t.Error("empty value treated as set")
	}
	if _, ok := parseBool("maybe"); ok {
		t.Error("garbage accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogTimestamp, "false")
	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel || !cfg.NoColor || cfg.Timestamp {
		t.Fatalf("config after overrides: %+v", cfg)
	}
}

func TestNewWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: zerolog.InfoLevel, NoColor: true, Out: &buf})
	l.With().Str("component", "server").Logger().Info().Msg("started")
	l.Debug().Msg("hidden")
	out := buf.String()
	if !strings.Contains(out, "started") || !strings.Contains(out, "component=server") {
		t.Fatalf("output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
}
