package logx

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the handler. Pretty picks tint's coloured output,
// otherwise JSON is emitted.
type Options struct {
	Level   slog.Level
	Pretty  bool
	App     string
	Version string
}

// New builds the process logger.
func New(w io.Writer, o Options) *slog.Logger {
	if o.Pretty {
		h := tint.NewHandler(w, &tint.Options{
			Level:      o.Level,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", o.App)
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.Level})
	return slog.New(h).With("app", o.App, "version", o.Version)
}

// Nop returns a logger that discards everything. Used by tests and as the
// fallback when a service is built without a logger.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 8}))
}

// Or returns l, or Nop() when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
