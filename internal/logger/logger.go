// Package logger writes leveled diagnostics for sercha-rag to stderr.
//
// Debug and info lines and section headers are verbose-only and appear with
// --verbose. Warnings and errors always print; the broker reports every
// fallback to a simulated backend as a warning.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level orders log lines by severity.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name without brackets.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// verboseOnly reports whether l is hidden unless verbose mode is on.
func (l Level) verboseOnly() bool {
	return l < LevelWarn
}

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects log lines, os.Stderr by default.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Logf writes one line at level l.
func Logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l.verboseOnly() && !verbose {
		return
	}
	fmt.Fprintf(output, "["+l.String()+"] "+format+"\n", args...)
}

// Section prints a header before a group of verbose lines.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Debug logs pipeline detail.
func Debug(format string, args ...any) { Logf(LevelDebug, format, args...) }

// Info logs state changes such as a mode switch.
func Info(format string, args ...any) { Logf(LevelInfo, format, args...) }

// Warn logs degraded operation.
func Warn(format string, args ...any) { Logf(LevelWarn, format, args...) }

// Error logs failures the caller cannot recover from.
func Error(format string, args ...any) { Logf(LevelError, format, args...) }
