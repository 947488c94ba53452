package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarning},
		{"warn", LevelWarning},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.name); got != tc.want {
			t.Errorf("%q: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	l := NewLogger(LevelWarning, "test")
	var buf bytes.Buffer
	l.logger.SetOutput(&buf)

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("messages below the threshold leaked: %q", buf.String())
	}

	l.Warning("disk %d%% full", 93)
	if !strings.Contains(buf.String(), "[test] WARNING: disk 93% full") {
		t.Errorf("warning output: %q", buf.String())
	}

	buf.Reset()
	l.Error("refresh failed")
	if !strings.Contains(buf.String(), "[test] ERROR: refresh failed") {
		t.Errorf("error output: %q", buf.String())
	}
}

func TestWithNameSharesLevelAndSink(t *testing.T) {
	parent := NewLogger(LevelError, "parent")
	var buf bytes.Buffer
	parent.logger.SetOutput(&buf)

	child := parent.WithName("child")
	child.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("child ignored the inherited threshold: %q", buf.String())
	}

	child.Error("boom")
	if !strings.Contains(buf.String(), "[child] ERROR: boom") {
		t.Errorf("child output: %q", buf.String())
	}
}
