package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered lines:\n%s", out)
	}
	if got := strings.Count(out, "shown"); got != 2 {
		t.Errorf("shown lines = %d, want 2", got)
	}
	if !strings.Contains(out, "WARN  qconvert: shown 3") {
		t.Errorf("unexpected line format:\n%s", out)
	}
}

func TestNamedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)
	w := l.Named("worker")

	w.Info("before")
	l.SetLevel(LevelDebug)
	w.Info("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("named logger ignored parent level:\n%s", out)
	}
	if !strings.Contains(out, "qconvert/worker: after") {
		t.Errorf("named logger line missing:\n%s", out)
	}
	if !w.Enabled(LevelDebug) {
		t.Error("Enabled(LevelDebug) = false after SetLevel(LevelDebug)")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"none", LevelNone, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
