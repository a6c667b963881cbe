package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/tokenkit/core/secret"
)

// Config provides environment-based configuration for the session manager.
type Config struct {
	// Prefix is prepended to every issued token, e.g. "oat_" or "ses_".
	Prefix string `env:"TOKEN_PREFIX" envDefault:"oat_"`

	// SecretSize is the number of random characters in a secret, excluding
	// the checksum suffix.
	SecretSize int `env:"TOKEN_SECRET_SIZE" envDefault:"64"`

	// MaxSessions bounds live sessions per owner; the oldest is evicted when
	// a new session would exceed it.
	MaxSessions int `env:"TOKEN_MAX_SESSIONS" envDefault:"3"`

	// DefaultExpiresIn is a duration string ("900s", "36h", "7d", "2w")
	// applied to sessions created without an explicit expiry. Empty means
	// sessions do not expire by default.
	DefaultExpiresIn string `env:"TOKEN_DEFAULT_EXPIRES_IN" envDefault:""`

	// InvalidTokenMessage is the uniform message of every authentication
	// failure.
	InvalidTokenMessage string `env:"TOKEN_INVALID_MESSAGE" envDefault:"not a valid session token"`

	// TouchInterval throttles LastUsedAt updates on authentication.
	// 0 disables touching entirely.
	TouchInterval time.Duration `env:"TOKEN_TOUCH_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:              "oat_",
		SecretSize:          secret.DefaultSize,
		MaxSessions:         3,
		InvalidTokenMessage: "not a valid session token",
		TouchInterval:       5 * time.Minute,
	}
}

// Option configures a Manager at construction time.
type Option[Owner any] func(*Manager[Owner])

// WithResolver sets the owner-resolution callback used by Owner.
func WithResolver[Owner any](r OwnerResolver[Owner]) Option[Owner] {
	return func(m *Manager[Owner]) {
		m.resolver = r
	}
}

// WithLogger sets the logger for log-only rejection diagnostics.
func WithLogger[Owner any](log *slog.Logger) Option[Owner] {
	return func(m *Manager[Owner]) {
		if log != nil {
			m.log = log
		}
	}
}

// WithHasher sets the digest algorithm for secrets. Changing it invalidates
// previously issued tokens, since stored hashes will no longer match.
func WithHasher[Owner any](h secret.Hasher) Option[Owner] {
	return func(m *Manager[Owner]) {
		m.hasher = h
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock[Owner any](now func() time.Time) Option[Owner] {
	return func(m *Manager[Owner]) {
		if now != nil {
			m.now = now
		}
	}
}

// WithPrefix sets the public token prefix.
func WithPrefix[Owner any](prefix string) Option[Owner] {
	return func(m *Manager[Owner]) {
		m.prefix = prefix
	}
}

// WithSecretSize sets the random character count of generated secrets.
func WithSecretSize[Owner any](size int) Option[Owner] {
	return func(m *Manager[Owner]) {
		m.secretSize = size
	}
}

// WithMaxSessions sets the per-owner session bound.
func WithMaxSessions[Owner any](n int) Option[Owner] {
	return func(m *Manager[Owner]) {
		m.maxSessions = n
	}
}

// WithDefaultExpiry sets the expiry applied when Create receives none.
// Zero means sessions do not expire by default.
func WithDefaultExpiry[Owner any](ttl time.Duration) Option[Owner] {
	return func(m *Manager[Owner]) {
		m.defaultTTL = ttl
	}
}

// WithInvalidTokenMessage overrides the uniform authentication failure
// message.
func WithInvalidTokenMessage[Owner any](msg string) Option[Owner] {
	return func(m *Manager[Owner]) {
		if msg != "" {
			m.invalidMessage = msg
		}
	}
}

// WithTouchInterval sets the minimum time between LastUsedAt updates.
// 0 disables touching.
func WithTouchInterval[Owner any](interval time.Duration) Option[Owner] {
	return func(m *Manager[Owner]) {
		m.touchInterval = interval
	}
}
