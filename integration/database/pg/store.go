package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tokenkit/core/session"
)

// querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx, so every
// store method transparently runs against the transaction carried in the
// context when one is present.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionStore persists session records in PostgreSQL. It implements
// session.Store; the schema lives in the embedded goose migrations.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a store backed by the given pool.
func NewSessionStore(pool *pgxpool.Pool) (*SessionStore, error) {
	if pool == nil {
		return nil, errors.New("pg: nil connection pool")
	}
	return &SessionStore{pool: pool}, nil
}

// db returns the transaction from ctx when present, the pool otherwise.
func (s *SessionStore) db(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

// InTx runs fn inside a transaction with read-committed isolation, which is
// enough to serialize the count-check against the insert for one owner. If
// ctx already carries an external transaction, fn joins it and the outer
// owner controls commit and rollback.
func (s *SessionStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(WithTx(ctx, tx))
	})
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	const q = `
		INSERT INTO sessions (owner_id, hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return s.db(ctx).QueryRow(ctx, q,
		sess.OwnerID, sess.Hash, sess.CreatedAt, sess.ExpiresAt,
	).Scan(&sess.ID)
}

func (s *SessionStore) FindByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	const q = `
		SELECT id, owner_id, hash, created_at, expires_at, last_used_at
		FROM sessions
		WHERE id = $1`

	var sess session.Session
	err := s.db(ctx).QueryRow(ctx, q, id).Scan(
		&sess.ID, &sess.OwnerID, &sess.Hash,
		&sess.CreatedAt, &sess.ExpiresAt, &sess.LastUsedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}
	return sess, nil
}

func (s *SessionStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *SessionStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	tag, err := s.db(ctx).Exec(ctx, `DELETE FROM sessions WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *SessionStore) RecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]session.Session, error) {
	const q = `
		SELECT id, owner_id, hash, created_at, expires_at, last_used_at
		FROM sessions
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := s.db(ctx).Query(ctx, q, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []session.Session
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(
			&sess.ID, &sess.OwnerID, &sess.Hash,
			&sess.CreatedAt, &sess.ExpiresAt, &sess.LastUsedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SessionStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db(ctx).Exec(ctx,
		`UPDATE sessions SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db(ctx).Exec(ctx,
		`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
