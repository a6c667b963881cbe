// Package session issues and verifies opaque bearer session tokens without
// ever persisting a usable secret server-side.
//
// A token is `{prefix}{base64url(id)}.{base64url(secret)}`. The secret is a
// high-entropy random value with a CRC32 checksum suffix; only its one-way
// hash is stored. Presenting the token proves possession: the manager
// decodes it, looks up the record, recomputes the hash and compares it in
// constant time, then checks expiry.
//
// # Core Components
//
//   - Manager[Owner]: the lifecycle engine (Create, Authenticate, Owner,
//     Revoke, RevokeOwner, CleanupExpired)
//   - Store: persistence contract (PostgreSQL and Redis adapters live under
//     integration/database)
//   - OwnerResolver[Owner]: optional owner lookup for Owner
//   - AuthenticatedSession: persisted record plus ephemeral secret and token
//
// # Basic Usage
//
//	store, err := pg.NewSessionStore(pool)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manager, err := session.New[User](store,
//		session.WithResolver[User](userRepo),
//		session.WithMaxSessions[User](3),
//		session.WithDefaultExpiry[User](30*24*time.Hour),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Issue a token. The secret exists only in this return value.
//	auth, err := manager.Create(ctx, userID)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(auth.Token) // oat_...
//
//	// Later, authenticate a presented token.
//	sess, err := manager.Authenticate(ctx, rawToken)
//	if errors.Is(err, session.ErrInvalidToken) {
//		// respond 401 without hinting why
//	}
//
// # Session Rotation
//
// Each owner holds at most MaxSessions live sessions. Create inserts the new
// record and evicts the one past the bound, oldest first, inside a single
// store transaction, so two concurrent creates for the same owner cannot
// grow the set unboundedly.
//
// # Uniform Failure Surface
//
// Every Authenticate failure returns the same error kind and message,
// whether the token was malformed, unknown, tampered with or expired. The
// actual reason is attached to the manager's log records only. This is
// deliberate: a caller who can distinguish "unknown id" from "wrong secret"
// has an oracle for probing the session table.
//
// # Expiry
//
// Expiry is derived at read time from ExpiresAt; nothing transitions state
// in storage. CleanupExpired exists to keep tables small, not to enforce
// anything.
//
// # Configuration
//
// Config carries env-tagged settings (TOKEN_PREFIX, TOKEN_SECRET_SIZE,
// TOKEN_MAX_SESSIONS, TOKEN_DEFAULT_EXPIRES_IN, TOKEN_INVALID_MESSAGE,
// TOKEN_TOUCH_INTERVAL) for use with the config loader; functional options
// override it. Expiry strings accept time.ParseDuration syntax plus "d" and
// "w" suffixes.
package session
