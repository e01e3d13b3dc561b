package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", "auto")
	if err != nil {
		t.Fatal(err)
	}
	log.Info("frame written", "frame", 3)

	// a buffer is not a terminal, so auto means JSON
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("auto format on a buffer is not JSON: %v (%s)", err, buf.String())
	}
	if rec["level"] != "info" || rec["msg"] != "frame written" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	log, err = New(&buf, "debug", "text")
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("batch", "effects", 2)
	if !strings.Contains(buf.String(), "level=debug") || !strings.Contains(buf.String(), "effects=2") {
		t.Errorf("text output = %q", buf.String())
	}

	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Error("unsupported format accepted")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
