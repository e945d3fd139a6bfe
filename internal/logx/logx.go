// Package logx wraps the standard library logger with simple level gating,
// so every pipeline stage can log consistently behind a single
// -v/--verbose switch instead of each stage rolling its own conditional
// fmt.Fprintf(os.Stderr, ...).
package logx

import (
	"io"
	"log"
	"os"
)

// Logger gates debug output behind a verbose flag, and always emits
// warnings.
type Logger struct {
	verbose bool
	debug   *log.Logger
	warn    *log.Logger
}

// New builds a Logger writing to stderr. Pass verbose=true to enable debug
// output (the -v/--verbose flag in the CLI).
func New(verbose bool) *Logger {
	return &Logger{
		verbose: verbose,
		debug:   log.New(os.Stderr, "debug: ", 0),
		warn:    log.New(os.Stderr, "warn: ", 0),
	}
}

// Discard returns a Logger that never writes anything, for tests.
func Discard() *Logger {
	return &Logger{
		debug: log.New(io.Discard, "", 0),
		warn:  log.New(io.Discard, "", 0),
	}
}

// Debugf logs only when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.debug.Printf(format, args...)
}

// Warnf always logs.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.warn.Printf(format, args...)
}
