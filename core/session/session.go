package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the persisted record of an issued bearer credential. It never
// contains the plain secret: only the one-way hash is stored, so a database
// leak does not yield usable tokens.
type Session struct {
	// ID is the store-assigned unique session identifier.
	ID uuid.UUID

	// OwnerID identifies the entity the session authenticates.
	OwnerID uuid.UUID

	// Hash is the hex digest of the secret. The plain secret exists only in
	// the AuthenticatedSession returned from Create.
	Hash string

	CreatedAt time.Time

	// ExpiresAt is nil for non-expiring sessions. Expiry is derived at read
	// time, never transitioned in storage.
	ExpiresAt *time.Time

	// LastUsedAt is updated on successful authentication, throttled by the
	// manager's touch interval. It gates nothing.
	LastUsedAt *time.Time
}

// IsExpired reports whether the session has passed its expiry at the given
// instant. Sessions without ExpiresAt never expire.
func (s Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// AuthenticatedSession pairs a freshly persisted record with its ephemeral
// secret material. It is a separate composite on purpose: the secret and the
// public token must never travel with the persisted schema. Callers hand the
// Token to the client and drop this value; nothing retains it beyond the
// Create call that produced it.
type AuthenticatedSession struct {
	Session

	// Secret is the raw bearer secret, available only here.
	Secret string

	// Token is the full public opaque value, prefix and all.
	Token string
}
