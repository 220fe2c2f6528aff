// Package logging builds the structured logger used by the recognition services.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger wraps slog.Logger with face-id specific helpers.
// This keeps field names consistent across enroll, identify and verify.
type Logger struct {
	*slog.Logger
}

// ParseLevel converts a LOG_LEVEL value to a slog level.
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
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New creates a Logger writing to w. format is "text" or "json".
func New(level, format string, w io.Writer) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (expected text or json)", format)
	}
	return &Logger{Logger: slog.New(handler)}, nil
}

// Nop returns a Logger that discards all output.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// LogEnroll logs an enrollment.
func (l *Logger) LogEnroll(ctx context.Context, personID string, dimension, total int, err error) {
	if err != nil {
		l.WarnContext(ctx, "enroll failed",
			"person_id", personID,
			"dimension", dimension,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "enroll completed",
		"person_id", personID,
		"dimension", dimension,
		"total_entries", total,
	)
}

// LogIdentify logs an identification.
func (l *Logger) LogIdentify(ctx context.Context, personID string, similarity float64, accepted bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "identify failed", "error", err)
		return
	}
	l.DebugContext(ctx, "identify completed",
		"person_id", personID,
		"similarity", similarity,
		"accepted", accepted,
	)
}

// LogVerify logs a 1:1 verification.
func (l *Logger) LogVerify(ctx context.Context, expected, matched string, similarity float64, verified bool) {
	l.InfoContext(ctx, "verify completed",
		"expected_person_id", expected,
		"matched_person_id", matched,
		"similarity", similarity,
		"verified", verified,
	)
}
