package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestDebugSuppressedByDefault(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden %d", 42)
	Info("also hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestVerboseOutput(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("chunk %d of %d", 3, 10)
	Info("done")
	Section("Ingestion")

	out := buf.String()
	if !strings.Contains(out, "[DEBUG] chunk 3 of 10") {
		t.Errorf("missing debug line in %q", out)
	}
	if !strings.Contains(out, "[INFO] done") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "=== Ingestion ===") {
		t.Errorf("missing section header in %q", out)
	}
}

func TestWarnAndErrorAlwaysPrint(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("embedding failed for chunk %d", 1)
	Error("extraction failed: %s", "corrupt file")

	out := buf.String()
	if !strings.Contains(out, "[WARN] embedding failed for chunk 1") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] extraction failed: corrupt file") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestIsVerbose(t *testing.T) {
	defer reset()

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected IsVerbose to be true")
	}
	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected IsVerbose to be false")
	}
}
