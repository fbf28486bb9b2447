// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-objlifecycle.
//
// go-objlifecycle is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package adapters

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	logger zerolog.Logger
	level  LogLevel
}

// NewZerologLogger writes to w. When console is true the output is the
// human-readable zerolog console format, otherwise JSON lines.
func NewZerologLogger(w io.Writer, console bool) Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return &ZerologLogger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		level:  InfoLevel,
	}
}

// NewZerologFrom wraps an existing zerolog.Logger.
func NewZerologFrom(logger zerolog.Logger) Logger {
	return &ZerologLogger{logger: logger, level: InfoLevel}
}

func (z *ZerologLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	z.emit(DebugLevel, z.logger.Debug(), msg, fields)
}

func (z *ZerologLogger) Info(ctx context.Context, msg string, fields ...Field) {
	z.emit(InfoLevel, z.logger.Info(), msg, fields)
}

func (z *ZerologLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	z.emit(WarnLevel, z.logger.Warn(), msg, fields)
}

func (z *ZerologLogger) Error(ctx context.Context, msg string, fields ...Field) {
	z.emit(ErrorLevel, z.logger.Error(), msg, fields)
}

func (z *ZerologLogger) emit(level LogLevel, ev *zerolog.Event, msg string, fields []Field) {
	if level < z.level {
		return
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

// WithFields returns a child logger carrying fields as zerolog context.
func (z *ZerologLogger) WithFields(fields ...Field) Logger {
	c := z.logger.With()
	for _, f := range fields {
		c = c.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{logger: c.Logger(), level: z.level}
}

// WithContext is a no-op; zerolog events do not carry a context here.
func (z *ZerologLogger) WithContext(ctx context.Context) Logger {
	return z
}

func (z *ZerologLogger) SetLevel(level LogLevel) {
	z.level = level
}

func (z *ZerologLogger) GetLevel() LogLevel {
	return z.level
}
