package logger

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel: color.New(color.FgCyan),
	zapcore.InfoLevel:  color.New(color.FgGreen),
	zapcore.WarnLevel:  color.New(color.FgYellow),
	zapcore.ErrorLevel: color.New(color.FgRed),
}

type logger struct {
	zap *zap.Logger
}

// NewLogger creates a logger writing to stderr. Stdout is left to the
// program's own output.
func NewLogger(config LoggingConfig) Logger {
	return NewLoggerTo(config, os.Stderr)
}

// NewLoggerTo creates a logger writing to w. Production environments and
// the json format get a JSON encoder, everything else a coloured console
// encoder.
func NewLoggerTo(config LoggingConfig, w io.Writer) Logger {
	level := zap.NewAtomicLevelAt(ParseLevel(config.Level))

	var enc zapcore.Encoder
	if config.Environment == "production" || config.Format == "json" {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		enc = zapcore.NewConsoleEncoder(developmentEncoderConfig())
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)

	return &logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewLoggerFromZap wraps an existing zap logger.
func NewLoggerFromZap(z *zap.Logger) Logger {
	if z == nil {
		return NewNoopLogger()
	}
	return &logger{zap: z}
}

// NewNoopLogger creates a logger that discards everything.
func NewNoopLogger() Logger {
	return &logger{zap: zap.NewNop()}
}

// ParseLevel maps a configuration level name to a zap level. Unknown names
// fall back to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func developmentEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = colorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	c, ok := levelColors[level]
	if !ok {
		c = color.New(color.FgMagenta)
	}
	enc.AppendString(c.Sprint(level.CapitalString()))
}

func (l *logger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fieldsToZap(fields)...) }
func (l *logger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fieldsToZap(fields)...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fieldsToZap(fields)...) }
func (l *logger) Error(msg string, fields ...Field) { l.zap.Error(msg, fieldsToZap(fields)...) }
func (l *logger) Fatal(msg string, fields ...Field) { l.zap.Fatal(msg, fieldsToZap(fields)...) }

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fieldsToZap(fields)...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}

func fieldsToZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = f.ZapField()
	}
	return out
}
