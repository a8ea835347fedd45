package testing

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xraph/multi"
	"github.com/xraph/multi/logger"
)

// NewTestApp creates an app configured for testing with a silent logger.
// This prevents log bloat in test output.
func NewTestApp(name string) *multi.App {
	return NewTestAppWithConfig(multi.AppConfig{Name: name})
}

// NewTestAppWithLogger creates an app for testing with a custom logger.
// Use this when you need to capture and assert log messages.
func NewTestAppWithLogger(name string, log multi.Logger) *multi.App {
	return NewTestAppWithConfig(multi.AppConfig{Name: name, Logger: log})
}

// NewTestAppWithConfig creates an app for testing with full config control.
// Automatically adds a NoopLogger if none is provided and fills in the
// default configuration when it is left empty.
func NewTestAppWithConfig(cfg multi.AppConfig) *multi.App {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}
	if cfg.Config == (multi.Config{}) {
		cfg.Config = multi.DefaultAppConfig().Config
	}
	app, err := multi.NewApp(cfg)
	if err != nil {
		panic(err)
	}
	return app
}

// NewObservedLogger returns a logger that records every entry at level or
// above, for assertions on log output.
func NewObservedLogger(level zapcore.Level) (multi.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logger.NewLoggerFromZap(zap.New(core)), logs
}

// StartApp compiles root with app and fails the test on error.
func StartApp(t testing.TB, app *multi.App, root any) {
	t.Helper()
	if err := app.Start(context.Background(), root); err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
}
