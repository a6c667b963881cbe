package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tokenkit/core/logger"
	"github.com/dmitrymomot/tokenkit/core/secret"
	"github.com/dmitrymomot/tokenkit/core/token"
)

// Manager orchestrates the session token lifecycle: issuing secrets,
// encoding public tokens, verifying presented credentials and bounding the
// number of live sessions per owner. It is the only type callers interact
// with directly; persistence is delegated to a Store and owner lookup to an
// optional OwnerResolver.
type Manager[Owner any] struct {
	store    Store
	resolver OwnerResolver[Owner]
	hasher   secret.Hasher
	log      *slog.Logger
	now      func() time.Time

	prefix         string
	secretSize     int
	maxSessions    int
	defaultTTL     time.Duration
	invalidMessage string
	touchInterval  time.Duration
}

// New creates a session manager backed by the given store. Configuration
// values not overridden by options use the package defaults (prefix "oat_",
// 64-character secrets, 3 sessions per owner, non-expiring).
func New[Owner any](store Store, opts ...Option[Owner]) (*Manager[Owner], error) {
	if store == nil {
		return nil, ErrNoStore
	}

	cfg := DefaultConfig()
	m := &Manager[Owner]{
		store:          store,
		log:            slog.Default(),
		now:            time.Now,
		prefix:         cfg.Prefix,
		secretSize:     cfg.SecretSize,
		maxSessions:    cfg.MaxSessions,
		invalidMessage: cfg.InvalidTokenMessage,
		touchInterval:  cfg.TouchInterval,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.secretSize < secret.MinSize {
		return nil, errors.Join(ErrConfiguration, secret.ErrSizeTooSmall)
	}
	if m.maxSessions < 1 {
		return nil, errors.Join(ErrConfiguration, errors.New("max sessions must be at least 1"))
	}
	if m.touchInterval < 0 {
		return nil, errors.Join(ErrConfiguration, errors.New("touch interval must not be negative"))
	}

	return m, nil
}

// NewFromConfig creates a manager from environment-based configuration.
// Options are applied after the config, so they win on conflict. An invalid
// DefaultExpiresIn string fails fast with ErrConfiguration.
func NewFromConfig[Owner any](cfg Config, store Store, opts ...Option[Owner]) (*Manager[Owner], error) {
	fromCfg := make([]Option[Owner], 0, 6+len(opts))
	if cfg.Prefix != "" {
		fromCfg = append(fromCfg, WithPrefix[Owner](cfg.Prefix))
	}
	if cfg.SecretSize != 0 {
		fromCfg = append(fromCfg, WithSecretSize[Owner](cfg.SecretSize))
	}
	if cfg.MaxSessions != 0 {
		fromCfg = append(fromCfg, WithMaxSessions[Owner](cfg.MaxSessions))
	}
	if cfg.DefaultExpiresIn != "" {
		ttl, err := ParseExpiry(cfg.DefaultExpiresIn)
		if err != nil {
			return nil, err
		}
		fromCfg = append(fromCfg, WithDefaultExpiry[Owner](ttl))
	}
	if cfg.InvalidTokenMessage != "" {
		fromCfg = append(fromCfg, WithInvalidTokenMessage[Owner](cfg.InvalidTokenMessage))
	}
	fromCfg = append(fromCfg, WithTouchInterval[Owner](cfg.TouchInterval))

	return New[Owner](store, append(fromCfg, opts...)...)
}

// CreateOption adjusts a single Create call.
type CreateOption func(*createOptions) error

type createOptions struct {
	expiresIn *time.Duration
}

// WithExpiresIn sets the lifetime of the created session.
func WithExpiresIn(d time.Duration) CreateOption {
	return func(o *createOptions) error {
		o.expiresIn = &d
		return nil
	}
}

// WithExpiresInString sets the lifetime from a duration string such as "7d".
// An unparsable string fails the Create call with ErrConfiguration.
func WithExpiresInString(s string) CreateOption {
	return func(o *createOptions) error {
		d, err := ParseExpiry(s)
		if err != nil {
			return err
		}
		o.expiresIn = &d
		return nil
	}
}

// Create issues a new session for the owner and returns the persisted record
// together with its ephemeral secret and public token. The insert and the
// rotation eviction run inside one store transaction: after the new record is
// in place, the owner's sessions are fetched newest-first and the one past
// the per-owner bound is deleted, so a successful Create leaves the owner
// with at most MaxSessions records and the chronologically oldest gone.
//
// To join an external transaction, pass a ctx that already carries one (see
// the store implementation's transaction helpers); the store joins it instead
// of opening its own. Any storage failure rolls the transaction back and is
// propagated wrapped in ErrStorage with the cause unchanged.
func (m *Manager[Owner]) Create(ctx context.Context, ownerID uuid.UUID, opts ...CreateOption) (AuthenticatedSession, error) {
	var co createOptions
	for _, opt := range opts {
		if err := opt(&co); err != nil {
			return AuthenticatedSession{}, err
		}
	}

	plain, hash, err := secret.GenerateWithHasher(m.secretSize, m.hasher)
	if err != nil {
		return AuthenticatedSession{}, err
	}

	now := m.now()
	sess := Session{
		OwnerID:   ownerID,
		Hash:      hash,
		CreatedAt: now,
	}
	switch {
	case co.expiresIn != nil:
		at := now.Add(*co.expiresIn)
		sess.ExpiresAt = &at
	case m.defaultTTL > 0:
		at := now.Add(m.defaultTTL)
		sess.ExpiresAt = &at
	}

	err = m.store.InTx(ctx, func(ctx context.Context) error {
		if err := m.store.Create(ctx, &sess); err != nil {
			return err
		}

		recent, err := m.store.RecentByOwner(ctx, ownerID, m.maxSessions+1)
		if err != nil {
			return err
		}
		if len(recent) > m.maxSessions {
			if _, err := m.store.DeleteByID(ctx, recent[m.maxSessions].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return AuthenticatedSession{}, errors.Join(ErrStorage, err)
	}

	m.log.LogAttrs(ctx, slog.LevelDebug, "session created",
		logger.SessionID(sess.ID), logger.OwnerID(ownerID))

	return AuthenticatedSession{
		Session: sess,
		Secret:  plain,
		Token:   token.Encode(sess.ID.String(), plain, m.prefix),
	}, nil
}

// Authenticate validates a presented token and returns the session it proves
// possession of. Every failure, whether a malformed token, an unknown id,
// a secret mismatch, an expired session, or a storage outage during lookup,
// surfaces as the same ErrInvalidToken with the same message; the actual
// reason is logged, never returned.
//
// On success LastUsedAt is recorded, throttled by the touch interval. The
// touch is best effort and never fails the call.
func (m *Manager[Owner]) Authenticate(ctx context.Context, rawToken string) (Session, error) {
	decoded, ok := token.Decode(rawToken, m.prefix)
	if !ok {
		return Session{}, m.reject(ctx, reasonMalformed, nil)
	}

	id, err := uuid.Parse(decoded.ID)
	if err != nil {
		return Session{}, m.reject(ctx, reasonMalformed, err)
	}

	sess, err := m.store.FindByID(ctx, id)
	if err != nil {
		return Session{}, m.reject(ctx, reasonNotFound, err)
	}

	if !secret.Verify(sess.Hash, m.hasher.Hash(decoded.Secret)) {
		return Session{}, m.reject(ctx, reasonMismatch, nil)
	}

	now := m.now()
	if sess.IsExpired(now) {
		return Session{}, m.reject(ctx, reasonExpired, nil)
	}

	m.touch(ctx, &sess, now)

	return sess, nil
}

// Owner authenticates the token and resolves the owning entity through the
// configured OwnerResolver. A resolution failure is indistinguishable from
// any other invalid token.
func (m *Manager[Owner]) Owner(ctx context.Context, rawToken string) (Owner, Session, error) {
	var zero Owner

	sess, err := m.Authenticate(ctx, rawToken)
	if err != nil {
		return zero, Session{}, err
	}

	if m.resolver == nil {
		return zero, Session{}, ErrNoResolver
	}

	owner, err := m.resolver.Resolve(ctx, sess.OwnerID)
	if err != nil {
		return zero, Session{}, m.reject(ctx, reasonOwnerNotFound, err)
	}

	return owner, sess, nil
}

// Revoke deletes a single session. Deleting an absent session is not an
// error.
func (m *Manager[Owner]) Revoke(ctx context.Context, id uuid.UUID) error {
	if _, err := m.store.DeleteByID(ctx, id); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// RevokeOwner deletes every session of the owner, signing them out
// everywhere. Returns the number of sessions removed.
func (m *Manager[Owner]) RevokeOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	n, err := m.store.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}

// CleanupExpired sweeps expired sessions from the store. Call it
// periodically; expiry itself is enforced at read time regardless.
func (m *Manager[Owner]) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}

// InvalidTokenMessage returns the uniform failure message, for transports
// that need to render it without an error in hand.
func (m *Manager[Owner]) InvalidTokenMessage() string {
	return m.invalidMessage
}

// reject logs the real reason and returns the uniform external error.
func (m *Manager[Owner]) reject(ctx context.Context, r reason, cause error) error {
	m.log.LogAttrs(ctx, slog.LevelDebug, "session token rejected",
		logger.Reason(string(r)), logger.Error(cause))
	return &invalidTokenError{message: m.invalidMessage, reason: r}
}

// touch records activity, throttled so hot tokens do not hammer the store.
func (m *Manager[Owner]) touch(ctx context.Context, sess *Session, now time.Time) {
	if m.touchInterval == 0 {
		return
	}
	if sess.LastUsedAt != nil && now.Sub(*sess.LastUsedAt) < m.touchInterval {
		return
	}
	if err := m.store.TouchLastUsed(ctx, sess.ID, now); err != nil {
		m.log.LogAttrs(ctx, slog.LevelWarn, "failed to record session activity",
			logger.SessionID(sess.ID), logger.Error(err))
		return
	}
	sess.LastUsedAt = &now
}
