// Package logging builds the channel-scoped slog loggers used across the service.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Channel names a logical log stream.
type Channel string

const (
	ChannelSystem   Channel = "system"
	ChannelDatabase Channel = "database"
	ChannelHTTP     Channel = "http"
	ChannelViews    Channel = "views"
	ChannelAuth     Channel = "auth"
)

// New returns the root logger: JSON in production, text otherwise.
func New(environment string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// For scopes logger to ch. A nil logger yields one that discards everything.
func For(logger *slog.Logger, ch Channel) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger.With(slog.String("channel", string(ch)))
}

// Discard is a logger for tests and optional dependencies.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
