package logger

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Attribute helpers return the empty Attr for nil or zero input, so call
// sites never need explicit guards: log.Info("msg", logger.Error(err)) is
// safe whether or not err is nil.

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Reason carries the internal rejection reason of an authentication
// failure. Log-only diagnostic; it must never reach a response body.
func Reason(reason string) slog.Attr {
	if reason == "" {
		return slog.Attr{}
	}
	return slog.String("reason", reason)
}

// SessionID creates an attribute for a session identifier.
func SessionID(id uuid.UUID) slog.Attr {
	if id == uuid.Nil {
		return slog.Attr{}
	}
	return slog.String("session_id", id.String())
}

// OwnerID creates an attribute for a session owner identifier.
func OwnerID(id uuid.UUID) slog.Attr {
	if id == uuid.Nil {
		return slog.Attr{}
	}
	return slog.String("owner_id", id.String())
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("component", name)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Count creates an attribute for a row or item count.
func Count(n int64) slog.Attr {
	return slog.Int64("count", n)
}
