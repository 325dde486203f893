package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

// capture redirects output to a buffer with the given verbosity and restores
// the defaults when the test ends.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		log     func(string, ...any)
		verbose bool
		want    string
	}{
		{"debug verbose", Debug, true, "[DEBUG] chunked doc-1\n"},
		{"debug quiet", Debug, false, ""},
		{"info verbose", Info, true, "[INFO] chunked doc-1\n"},
		{"info quiet", Info, false, ""},
		{"warn verbose", Warn, true, "[WARN] chunked doc-1\n"},
		{"warn quiet", Warn, false, "[WARN] chunked doc-1\n"},
		{"error quiet", Error, false, "[ERROR] chunked doc-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log("chunked %s", "doc-1")
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if got := LevelWarn.String(); got != "WARN" {
		t.Errorf("unexpected level name: %q", got)
	}
	if got := Level(9).String(); got != "Level(9)" {
		t.Errorf("unexpected unknown level name: %q", got)
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Search Execution")
	if got := buf.String(); got != "\n=== Search Execution ===\n" {
		t.Errorf("unexpected section output: %q", got)
	}

	buf.Reset()
	SetVerbose(false)
	Section("Search Execution")
	if buf.Len() > 0 {
		t.Error("expected no section header when quiet")
	}
}

func TestConcurrentAccess(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Debug("concurrent %d", i)
			Warn("fallback %d", i)
			IsVerbose()
		}()
	}
	wg.Wait()

	if lines := bytes.Count(buf.Bytes(), []byte("\n")); lines != 20 {
		t.Errorf("expected 20 lines, got %d", lines)
	}
}
