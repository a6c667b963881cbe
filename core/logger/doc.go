// Package logger provides slog attribute helpers shared across tokenkit
// packages. Helpers follow the empty-Attr pattern: nil or zero input yields
// an attribute slog silently drops, so call sites stay free of guards.
package logger
