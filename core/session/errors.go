package session

import "errors"

var (
	// ErrInvalidToken is the single externally visible authentication
	// failure. Malformed tokens, unknown ids, secret mismatches and expired
	// sessions all resolve to it, so a caller cannot tell why a token was
	// rejected. Match with errors.Is.
	ErrInvalidToken = errors.New("not a valid session token")

	// ErrNotFound is returned by stores when a session record does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrStorage wraps store failures during Create. The underlying cause is
	// preserved unchanged for the caller.
	ErrStorage = errors.New("session storage failure")

	// ErrConfiguration is returned for invalid durations, sizes or other
	// out-of-range settings. It fails fast at construction.
	ErrConfiguration = errors.New("invalid session configuration")

	// ErrNoStore is returned when a manager is constructed without a store.
	ErrNoStore = errors.New("no session store configured")

	// ErrNoResolver is returned by Owner when no OwnerResolver is configured.
	ErrNoResolver = errors.New("no owner resolver configured")
)

// reason classifies why authentication failed. It is diagnostic metadata for
// logs only and is never part of the externally visible error.
type reason string

const (
	reasonMalformed     reason = "malformed"
	reasonNotFound      reason = "not_found"
	reasonMismatch      reason = "secret_mismatch"
	reasonExpired       reason = "expired"
	reasonOwnerNotFound reason = "owner_not_found"
)

// invalidTokenError carries the uniform message plus log-only diagnostics.
// It deliberately has no Unwrap: the root cause must not be reachable from
// the returned error, only from the manager's logs.
type invalidTokenError struct {
	message string
	reason  reason
}

func (e *invalidTokenError) Error() string {
	return e.message
}

// Is makes every authentication failure match ErrInvalidToken.
func (e *invalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}
