package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"debug lowercase", "debug", slog.LevelDebug},
		{"debug uppercase", "DEBUG", slog.LevelDebug},
		{"debug mixed", "Debug", slog.LevelDebug},
		{"info lowercase", "info", slog.LevelInfo},
		{"info uppercase", "INFO", slog.LevelInfo},
		{"warn lowercase", "warn", slog.LevelWarn},
		{"warn uppercase", "WARN", slog.LevelWarn},
		{"error lowercase", "error", slog.LevelError},
		{"error uppercase", "ERROR", slog.LevelError},
		{"empty string", "", slog.LevelInfo},
		{"invalid value", "invalid", slog.LevelInfo},
		{"trace returns info", "trace", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetupWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")

	prev := slog.Default()
	defer slog.SetDefault(prev)

	cleanup, err := Setup(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	slog.Debug("hidden")
	slog.Info("release upgrade requested", "from", "20.04", "to", "22.04")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(out, `"msg":"release upgrade requested"`) || !strings.Contains(out, `"to":"22.04"`) {
		t.Errorf("unexpected log contents: %s", out)
	}
}

func TestSetupMultiMirrorsAsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	var mirror bytes.Buffer

	prev := slog.Default()
	defer slog.SetDefault(prev)

	cleanup, err := SetupMulti(path, &mirror, slog.LevelDebug)
	if err != nil {
		t.Fatalf("SetupMulti() error = %v", err)
	}
	slog.With("kind", "release-upgrade").Debug("dispatching events")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"release-upgrade"`) {
		t.Errorf("file record missing attrs: %s", data)
	}
	if !strings.Contains(mirror.String(), "msg=\"dispatching events\" kind=release-upgrade") {
		t.Errorf("text mirror = %q", mirror.String())
	}
}

func TestLogPanic(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)
	SetupTest(&buf)

	var recovered any
	func() {
		defer LogPanic("event-stream", func(r any) { recovered = r })
		panic("boom")
	}()

	if recovered != "boom" {
		t.Errorf("recovered = %v, want boom", recovered)
	}
	if !strings.Contains(buf.String(), "goroutine=event-stream") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}
