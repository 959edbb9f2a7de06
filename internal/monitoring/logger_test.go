package monitoring

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op; it must neither panic nor call the previous logger
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestWarnf(t *testing.T) {
	lines := captureLogs(t)
	Warnf("missing years %v", []int{2003})
	if len(*lines) != 1 || (*lines)[0] != "warning: missing years [2003]" {
		t.Errorf("unexpected log lines: %q", *lines)
	}
}

func TestProgressLogger(t *testing.T) {
	lines := captureLogs(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	p := NewProgressLogger(time.Second)
	p.now = func() time.Time { return current }

	p.FileProcessed("occurrence", 1, 2, "/in/2001.tif")
	p.PixelsAnalysed(10, 30)
	current = current.Add(100 * time.Millisecond)
	p.PixelsAnalysed(10, 30) // throttled
	current = current.Add(2 * time.Second)
	p.PixelsAnalysed(10, 30)
	p.OutputWritten("/out/mean_return.tif")

	if got := p.Analysed(); got != 30 {
		t.Errorf("Analysed() = %d, want 30", got)
	}

	if len(*lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d: %q", len(*lines), *lines)
	}
	if !strings.HasPrefix((*lines)[0], "[occurrence] 1/2") {
		t.Errorf("unexpected file line %q", (*lines)[0])
	}
	if !strings.Contains((*lines)[2], "30 pixels analysed") {
		t.Errorf("unexpected pixel line %q", (*lines)[2])
	}
	if !strings.Contains((*lines)[3], "elapsed 2.1s") {
		t.Errorf("unexpected output line %q", (*lines)[3])
	}
}
