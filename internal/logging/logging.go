// Package logging configures the process-wide slog logger and provides
// operation timing helpers.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a logger writing to w in the given format.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format("2006-01-02T15:04:05.000-07:00"))
			}
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(source.File), source.Line))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", FormatText:
		handler = slog.NewTextHandler(w, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(handler), nil
}

// Setup installs a logger built by New as the slog default.
func Setup(level, format string, w io.Writer) error {
	l, err := New(level, format, w)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

// OperationStart logs the start of an operation and returns a function that
// logs its completion with the elapsed time and the resulting error, if any.
func OperationStart(operation string, details map[string]any) func(error) {
	start := time.Now()

	attrs := []slog.Attr{slog.String("operation", operation)}
	if len(details) > 0 {
		detailAttrs := make([]any, 0, len(details)*2)
		for k, v := range details {
			detailAttrs = append(detailAttrs, k, v)
		}
		attrs = append(attrs, slog.Group("details", detailAttrs...))
	}
	slog.Default().LogAttrs(context.Background(), slog.LevelDebug, "operation started", attrs...)

	return func(err error) {
		done := append(attrs[:len(attrs):len(attrs)], slog.Duration("duration", time.Since(start)))
		if err != nil {
			done = append(done, slog.String("error", err.Error()))
			slog.Default().LogAttrs(context.Background(), slog.LevelWarn, "operation failed", done...)
			return
		}
		slog.Default().LogAttrs(context.Background(), slog.LevelDebug, "operation completed", done...)
	}
}
