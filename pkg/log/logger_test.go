package log

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"strings"
	"testing"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(buf))), buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err=%v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelGating(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{})
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %s", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "shown") {
		t.Fatalf("missing warn line: %s", out)
	}
}

func TestWithFieldsText(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel, &TextFormatter{})
	l = l.With(Component("dispatch"))
	l.Debug("sent", Str("provider", "google"), Int("ids", 3))
	out := buf.String()
	for _, want := range []string{"component=dispatch", "provider=google", "ids=3", "sent"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &JSONFormatter{})
	l.WithError(errors.New("boom")).Error("failed", Int("status", 500))
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if m["msg"] != "failed" || m["level"] != "error" || m["error"] != "boom" {
		t.Fatalf("unexpected entry: %v", m)
	}
	if m["status"].(float64) != 500 {
		t.Fatalf("status field: %v", m["status"])
	}
}

func TestApplyConfigRedacts(t *testing.T) {
	lg, err := ApplyConfig(&Config{Level: "info", Format: "text", Output: "null", Redact: []string{"api_key"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	bl := lg.(*BaseLogger)
	buf := &bytes.Buffer{}
	bl.outputs = []Output{NewWriterOutput(buf)}
	lg.Info("configured", Str("api_key", "secret"))
	if strings.Contains(buf.String(), "secret") || !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("expected redaction: %s", buf.String())
	}
}

func TestApplyConfigRejectsUnknown(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
	if _, err := ApplyConfig(&Config{Output: "file"}); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestSampler(t *testing.T) {
	s := newSampler(2, 3)
	var allowed int
	for i := 0; i < 8; i++ {
		if s.allow(0, "m") {
			allowed++
		}
	}
	// first 2, then every 3rd of the remaining 6
	if allowed != 4 {
		t.Fatalf("allowed=%d want 4", allowed)
	}
}

func TestToStdLogger(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{})
	std := ToStdLogger(l, WarnLevel)
	std.Printf("pebble says %d", 42)
	if !strings.Contains(buf.String(), "WARN") || !strings.Contains(buf.String(), "pebble says 42") {
		t.Fatalf("unexpected: %s", buf.String())
	}
	var _ *stdlog.Logger = std
}
