// Package observability builds the process-wide logger and Prometheus
// registry, and serves the metrics endpoint.
package observability

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ahrav/go-groundqa/internal/llm/configuration"
)

// Log output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ErrInvalidLogFormat indicates an unsupported log format.
var ErrInvalidLogFormat = errors.New("invalid log format")

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger builds a slog logger writing to w (stderr when nil) in the
// configured format and level.
func NewLogger(cfg configuration.ObservabilityConfig, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "", FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.LogFormat)
	}

	return slog.New(handler).With("service", "groundqa"), nil
}
