// Package logger is the installer's process-wide diagnostic log.
//
// Debug, Info and Warn lines are only written once SetVerbose(true) has been
// called (the root --verbose flag). Error lines are always written: they
// describe a failure that was reported to the caller, such as one provider
// failing during a fan-out deploy, without aborting the operation.
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
	levelError level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose toggles Debug, Info, Warn and Section output.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log lines. Tests pass a buffer; os.Stderr is the default.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

func Debug(format string, args ...any) { emit(levelDebug, format, args) }

func Info(format string, args ...any) { emit(levelInfo, format, args) }

func Warn(format string, args ...any) { emit(levelWarn, format, args) }

// Error is written even when verbose output is off.
func Error(format string, args ...any) { emit(levelError, format, args) }

// Section writes a banner separating phases of a long operation, e.g. one
// provider's deploy or the stages of an authorization flow.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func emit(l level, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && l != levelError {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", l, fmt.Sprintf(format, args...))
}
