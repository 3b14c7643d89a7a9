package logging

import (
	"io"
	"log/slog"
	"strings"
)

// NewJSONLogger builds the engine's structured logger. Callers pass the
// destination so main can keep stdout clean for the shell that launched the
// engine, and tests can capture output.
func NewJSONLogger(out io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelFor(level)})
	return slog.New(handler).With("service", service)
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// levelFor is forgiving: unknown or empty names mean info.
func levelFor(name string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return slog.LevelInfo
}
