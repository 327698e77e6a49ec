// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger writes key/value pairs to a Handler.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes.
	With(ctx ...any) Logger

	// Enabled reports whether l emits log records at the given level.
	Enabled(level slog.Level) bool

	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return &logger{slog.New(h)}
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) Enabled(level slog.Level) bool {
	return l.inner.Enabled(context.Background(), level)
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.inner.Debug(msg, ctx...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.inner.Info(msg, ctx...)
}

func (l *logger) Warn(msg string, ctx ...any) {
	l.inner.Warn(msg, ctx...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.inner.Error(msg, ctx...)
}

type loggerBox struct{ Logger }

var root atomic.Value

func init() {
	var lvl slog.LevelVar
	lvl.Set(slog.LevelInfo)
	root.Store(loggerBox{&logger{slog.New(LogfmtHandlerWithLevel(os.Stderr, &lvl))}})
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(loggerBox{l})
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(loggerBox).Logger
}

// WithContext returns a logger scoped with the given attributes, derived from
// the root logger.
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// Debug logs a message at the debug level with context key/value pairs.
func Debug(msg string, ctx ...any) {
	Root().Debug(msg, ctx...)
}

// Info logs a message at the info level with context key/value pairs.
func Info(msg string, ctx ...any) {
	Root().Info(msg, ctx...)
}

// Warn logs a message at the warn level with context key/value pairs.
func Warn(msg string, ctx ...any) {
	Root().Warn(msg, ctx...)
}

// Error logs a message at the error level with context key/value pairs.
func Error(msg string, ctx ...any) {
	Root().Error(msg, ctx...)
}
