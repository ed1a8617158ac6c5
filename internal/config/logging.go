package config

import (
	"io"
	"log/slog"
	"strings"
)

// Level is shared by every logger built with NewLogger, so a config reload
// can change verbosity without rebuilding handlers.
var Level = new(slog.LevelVar)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger returns a text logger writing to w at the shared Level.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level}))
}

// ApplyLogLevel sets the shared Level from cfg.
func ApplyLogLevel(cfg *Config) {
	Level.Set(ParseLevel(cfg.Log.Level))
}
