package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/georgepadayatti/littlebook/config"
)

// newLogger builds the logger described by cfg. The returned function
// closes a log file, if one was opened.
func newLogger(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() error { return nil }
	var w io.Writer
	switch cfg.Output {
	case "stdout":
		w = stdout
	case "", "stderr":
		w = stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeFn, nil
}
