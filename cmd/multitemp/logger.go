package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robrwo/multitemp/logging"
)

func consoleLoggerFactory(level string) logging.LoggerFactory {
	ec := zapcore.EncoderConfig{
		LevelKey:         "l",
		MessageKey:       "m",
		NameKey:          "n",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
		EncodeLevel: func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
			if l == zap.InfoLevel {
				// info log does not have a prefix.
				return
			}

			zapcore.CapitalColorLevelEncoder(l, pae)
		},
	}

	root := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(ec),
		zapcore.AddSync(os.Stderr),
		logLevelFromFlag(level),
	))

	return func(module string) logging.Logger {
		return root.Named(module).Sugar()
	}
}

func logLevelFromFlag(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	default:
		return zap.ErrorLevel
	}
}
