package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output. Tests wire it
// anywhere a component wants a *slog.Logger.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
