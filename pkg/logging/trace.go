package logging

import (
	"log/slog"
	"sync/atomic"
)

// Per-frame logs are off unless the server log level is TRACE.
var traceOn atomic.Bool

// SetTrace switches per-frame debug logging.
func SetTrace(on bool) { traceOn.Store(on) }

// TraceEnabled reports whether per-frame logs are written.
func TraceEnabled() bool { return traceOn.Load() }

// Trace logs at DEBUG level on logger when tracing is on.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if traceOn.Load() {
		logger.Debug(msg, args...)
	}
}

// TraceDefault is Trace on the default logger.
func TraceDefault(msg string, args ...any) {
	Trace(slog.Default(), msg, args...)
}
