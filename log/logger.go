// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides structured logging on top of log/slog.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// LevelString returns the short name of a level.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return l.String()
	}
}

// Logger writes key/value records at various levels.
type Logger interface {
	// With returns a Logger that includes the given attributes in each
	// output operation.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type logger struct {
	inner *slog.Logger
}

// New returns a Logger backed by the given handler.
func New(h slog.Handler) Logger {
	return &logger{slog.New(h)}
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(DiscardHandler())})
}

// SetRootHandler replaces the handler of the root logger.
// Loggers derived via WithContext pick the new handler up lazily.
func SetRootHandler(h slog.Handler) {
	root.Store(&logger{slog.New(h)})
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(*logger)
}

// WithContext returns a logger deriving from the root logger that carries
// the given attributes.
func WithContext(ctx ...any) Logger {
	return &ctxLogger{ctx: ctx}
}

// ctxLogger defers root lookup to write time, so packages may build their
// loggers at init before the root handler is configured.
type ctxLogger struct {
	ctx []any
}

func (l *ctxLogger) resolve() Logger {
	return Root().With(l.ctx...)
}

func (l *ctxLogger) With(ctx ...any) Logger {
	return &ctxLogger{ctx: append(append([]any{}, l.ctx...), ctx...)}
}

func (l *ctxLogger) Trace(msg string, ctx ...any) { l.resolve().Trace(msg, ctx...) }
func (l *ctxLogger) Debug(msg string, ctx ...any) { l.resolve().Debug(msg, ctx...) }
func (l *ctxLogger) Info(msg string, ctx ...any)  { l.resolve().Info(msg, ctx...) }
func (l *ctxLogger) Warn(msg string, ctx ...any)  { l.resolve().Warn(msg, ctx...) }
func (l *ctxLogger) Error(msg string, ctx ...any) { l.resolve().Error(msg, ctx...) }

// StderrHandler is a terminal handler writing to standard error.
func StderrHandler(level slog.Level) slog.Handler {
	var lvl slog.LevelVar
	lvl.Set(level)
	return NewTerminalHandlerWithLevel(os.Stderr, &lvl, true)
}
