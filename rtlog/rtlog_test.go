package rtlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestNewWithoutDirectoryReturnsLogger(t *testing.T) {
	logger := New(Options{})
	if logger == nil {
		t.Fatalf("New() returned nil")
	}
}

// TestNewRespectsLevel exercises New itself (not a hand-built handler):
// os.Stderr is swapped for a pipe New will write to when Directory is
// unset, so the assertions cover New's actual level wiring.
func TestNewRespectsLevel(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	orig := os.Stderr
	os.Stderr = w

	logger := New(Options{Level: slog.LevelWarn})
	logger.Info("this should not appear")
	logger.Warn("this should appear")

	os.Stderr = orig
	w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	text := string(out)
	if strings.Contains(text, "this should not appear") {
		t.Fatalf("info record leaked through warn-level logger: %q", text)
	}
	if !strings.Contains(text, "this should appear") {
		t.Fatalf("warn record missing: %q", text)
	}
}
