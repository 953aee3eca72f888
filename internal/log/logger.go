package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: walk progress, counts, summary
	LevelDebug        // -vv: pages, per-item outcomes
	LevelTrace        // -vvv: full details
)

// Custom slog levels mapped to our verbosity
const (
	slogLevelTrace = slog.Level(-8) // Below debug
)

var (
	mu         sync.Mutex
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	diag       io.Writer
	inProgress bool // tracks if we have an in-progress line
)

// Initialize sets up the global logger with the specified verbosity level.
// Diagnostics keep going to stderr even when w discards.
func Initialize(level int, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	verbosity = level
	output = w
	inProgress = false

	var slogLevel slog.Level
	switch {
	case level >= LevelTrace:
		slogLevel = slogLevelTrace
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	default:
		slogLevel = slog.LevelWarn
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slogLevel,
	})
	logger = slog.New(handler)
}

func current() (*slog.Logger, int) {
	mu.Lock()
	defer mu.Unlock()
	return logger, verbosity
}

// Info logs at info level (-v)
func Info(msg string, args ...any) {
	l, v := current()
	if v >= LevelInfo {
		clearProgress()
		l.Info(msg, args...)
	}
}

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) {
	l, v := current()
	if v >= LevelDebug {
		clearProgress()
		l.Debug(msg, args...)
	}
}

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) {
	l, v := current()
	if v >= LevelTrace {
		clearProgress()
		l.Log(context.Background(), slogLevelTrace, msg, args...)
	}
}

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) {
	l, _ := current()
	clearProgress()
	l.Warn(msg, args...)
}

// Error logs at error level (always visible)
func Error(msg string, args ...any) {
	l, _ := current()
	clearProgress()
	l.Error(msg, args...)
}

// Diag writes a plain line for the user, regardless of verbosity.
func Diag(msg string) {
	Diagf("%s\n", msg)
}

// Diagf writes formatted plain text for the user, regardless of verbosity.
func Diagf(format string, args ...any) {
	clearProgress()
	mu.Lock()
	w := diag
	mu.Unlock()
	_, _ = fmt.Fprintf(w, format, args...)
}

// DiagWriter returns a writer that forwards to the diagnostic output.
func DiagWriter() io.Writer {
	return diagWriter{}
}

type diagWriter struct{}

func (diagWriter) Write(p []byte) (int, error) {
	clearProgress()
	mu.Lock()
	w := diag
	mu.Unlock()
	return w.Write(p)
}

// Progress prints a progress message with carriage return (no newline)
// Only shown at info level or higher
func Progress(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo {
		inProgress = true
		_, _ = fmt.Fprintf(output, "\r"+format, args...)
	}
}

// ProgressDone completes a progress line with "done" and newline
func ProgressDone() {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo && inProgress {
		_, _ = fmt.Fprintln(output, " done")
		inProgress = false
	}
}

// ProgressClear clears the current progress line
func ProgressClear() {
	mu.Lock()
	defer mu.Unlock()
	if inProgress {
		_, _ = fmt.Fprint(output, "\r\033[K") // carriage return + clear to end of line
		inProgress = false
	}
}

// clearProgress ensures we don't write over a progress line
func clearProgress() {
	mu.Lock()
	defer mu.Unlock()
	if inProgress {
		_, _ = fmt.Fprintln(output) // just add a newline to preserve the progress
		inProgress = false
	}
}

// IsInfo returns true if info-level logging is enabled
func IsInfo() bool {
	_, v := current()
	return v >= LevelInfo
}

// IsDebug returns true if debug-level logging is enabled
func IsDebug() bool {
	_, v := current()
	return v >= LevelDebug
}

// IsTrace returns true if trace-level logging is enabled
func IsTrace() bool {
	_, v := current()
	return v >= LevelTrace
}

// Verbosity returns the current verbosity level
func Verbosity() int {
	_, v := current()
	return v
}

// SetOutput changes the output writer (useful for testing)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetDiagOutput changes where diagnostics are written (useful for testing)
func SetDiagOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	diag = w
}

// DiagOutput returns the current diagnostic output.
func DiagOutput() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return diag
}

func init() {
	// Default initialization with quiet mode to stderr
	output = os.Stderr
	diag = os.Stderr
	verbosity = LevelQuiet
	logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
