// Package logging provides loggers scoped to modules and carried via the context.
package logging

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is used to emit log messages.
type Logger = *zap.SugaredLogger

// LoggerFactory retrieves a named logger for a given module.
type LoggerFactory func(module string) Logger

type contextKey string

const loggerKey contextKey = "logger"

// NullLogger discards all log messages.
var NullLogger = zap.NewNop().Sugar() //nolint:gochecknoglobals

// WithLogger returns a derived context with the associated logger factory.
func WithLogger(ctx context.Context, l LoggerFactory) context.Context {
	if l == nil {
		l = getNullLogger
	}

	return context.WithValue(ctx, loggerKey, l)
}

// Module returns a function that retrieves the logger for the given module
// from the provided context.
func Module(module string) func(ctx context.Context) Logger {
	return func(ctx context.Context) Logger {
		if l, ok := ctx.Value(loggerKey).(LoggerFactory); ok {
			return l(module)
		}

		return NullLogger
	}
}

// ToWriter returns LoggerFactory that writes unadorned log messages to the
// given writer.
func ToWriter(w io.Writer) LoggerFactory {
	return func(module string) Logger {
		return zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
				MessageKey: "m",
				LineEnding: zapcore.DefaultLineEnding,
			}),
			zapcore.AddSync(w),
			zap.DebugLevel,
		)).Sugar()
	}
}

func getNullLogger(module string) Logger {
	return NullLogger
}
