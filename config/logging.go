package config

import (
	"io"
	"log/slog"
)

// NewLogger returns a JSON logger writing to w at the configured level.
// Unknown levels fall back to info.
func (s *Settings) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
