// Package log configures structured logging for the library and its example
// programs. Production setups get a JSON slog handler; dev consoles get a
// colorized tint handler. Errors carrying cockroachdb stack traces are
// expanded into a stacktrace attribute.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

const (
	// ErrAttrKey is the attribute key under which errors are logged.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the attribute key for extracted stack traces.
	StacktraceAttrKey = "stacktrace"
)

// SetupLogger installs the default slog logger. format is "json" or
// "console"; loglevel is one of "debug", "info", "warn", "error".
func SetupLogger(format, loglevel string) {
	level := ToLogLevel(loglevel)

	var handler slog.Handler
	switch format {
	case "console":
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	default:
		panic(fmt.Sprintf("invalid log format: %s", format))
	}

	slog.SetDefault(slog.New(WithStacktraces(handler)))
}

// ToLogLevel maps a level name to its slog level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level: %s", level))
	}
}
