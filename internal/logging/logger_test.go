package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_KeyValueFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.With("location", "3101").Warn("remote tier failed", "err", errors.New("timeout"), "attempt", 2, "dangling")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["location"] != "3101" {
		t.Errorf("location = %v", fields["location"])
	}
	if fields["err"] != "timeout" {
		t.Errorf("err = %v, want timeout", fields["err"])
	}
	if fields["attempt"] != int64(2) {
		t.Errorf("attempt = %v (%T)", fields["attempt"], fields["attempt"])
	}
	if v, ok := fields["dangling"]; !ok || v != nil {
		t.Errorf("dangling key should be logged with nil value, got %v", v)
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var log *Logger
	log.Info("nothing happens")
	if log.With("a", 1) == nil {
		t.Error("With on nil logger should return a usable logger")
	}
	if err := log.Sync(); err != nil {
		t.Errorf("Sync on nil logger: %v", err)
	}
}

func TestNewConsole_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsole(LevelWarn, &buf)

	log.Info("hidden")
	log.Warn("shown", "city", "Bandung")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "Bandung") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"", LevelInfo, false},
		{"WARN", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
