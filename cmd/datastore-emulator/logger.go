package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/goliatone/go-datastore/core"
)

const levelTrace = slog.LevelDebug - 4

// consoleLogger adapts slog to the glog logger contract for the binary.
type consoleLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func newConsoleLogger(verbose bool) consoleLogger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return consoleLogger{logger: slog.New(handler).With("service", "datastore-emulator"), ctx: context.Background()}
}

func (l consoleLogger) Trace(msg string, args ...any) { l.log(levelTrace, msg, args) }

func (l consoleLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

func (l consoleLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }

func (l consoleLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }

func (l consoleLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l consoleLogger) Fatal(msg string, args ...any) {
	l.log(slog.LevelError, msg, args)
	os.Exit(1)
}

func (l consoleLogger) WithContext(ctx context.Context) core.Logger {
	if ctx == nil {
		return l
	}
	l.ctx = ctx
	return l
}

func (l consoleLogger) log(level slog.Level, msg string, args []any) {
	l.logger.Log(l.ctx, level, msg, args...)
}
