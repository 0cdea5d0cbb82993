// Package logger provides the verbose diagnostics channel for the
// mailrag CLI. With --verbose the ingestion and query pipelines narrate
// their progress to stderr; warnings are emitted regardless, since a
// skipped document or a failed checkpoint should never be silent.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables the debug and info channels.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose logging is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output, mainly for tests. Defaults to stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

func emit(lv level, gated bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", lv, fmt.Sprintf(format, args...))
}

// Debug logs pipeline detail. Only emitted in verbose mode.
func Debug(format string, args ...any) {
	emit(levelDebug, true, format, args...)
}

// Info logs progress milestones. Only emitted in verbose mode.
func Info(format string, args ...any) {
	emit(levelInfo, true, format, args...)
}

// Warn logs recoverable problems. Always emitted.
func Warn(format string, args ...any) {
	emit(levelWarn, false, format, args...)
}

// Section marks the start of a pipeline phase in verbose output.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}
