// Package log provides structured logging for boostbin, backed by zerolog.
//
// The package keeps a single process-wide logger. Components obtain named
// sub-loggers with GetLoggerWithName and attach context with key/value pairs:
//
//	logger := log.GetLoggerWithName("booster")
//	logger.Debug("pass finished", "term", iTerm, "samples", n)
//
// Logging is disabled by default so the accumulation hot paths cost nothing
// unless a caller opts in with SetupLogger.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper over zerolog.Logger exposing a key/value pair API.
type Logger struct {
	zl zerolog.Logger
}

var (
	mu   sync.RWMutex
	root = newRoot(os.Stderr)
)

func newRoot(w io.Writer) Logger {
	return Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// SetupLogger enables logging at the given level. Recognized levels are
// "trace", "debug", "info", "warn", "error" and "disabled"; anything else
// falls back to "info".
func SetupLogger(level string) {
	switch strings.ToLower(level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetOutput redirects all loggers to w. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	root = newRoot(w)
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger{zl: root.zl.With().Str("component", name).Logger()}
}

// With returns a logger carrying the given key/value pairs on every event.
func (l Logger) With(keysAndValues ...interface{}) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keysAndValues[i+1])
	}
	return Logger{zl: ctx.Logger()}
}

// Trace logs at trace level with key/value pairs.
func (l Logger) Trace(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Trace(), msg, keysAndValues)
}

// Debug logs at debug level with key/value pairs.
func (l Logger) Debug(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Debug(), msg, keysAndValues)
}

// Info logs at info level with key/value pairs.
func (l Logger) Info(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Info(), msg, keysAndValues)
}

// Warn logs at warn level with key/value pairs.
func (l Logger) Warn(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Warn(), msg, keysAndValues)
}

// Error logs at error level with key/value pairs.
func (l Logger) Error(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Error(), msg, keysAndValues)
}

func emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}
