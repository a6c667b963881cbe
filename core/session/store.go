package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence contract for session records. Implementations
// must handle concurrent access safely and return ErrNotFound from FindByID
// when no record exists.
type Store interface {
	// InTx runs fn inside a single transaction. The context passed to fn
	// carries the transaction; every Store call made with it participates.
	// If the incoming ctx already carries an external transaction, the
	// implementation joins it instead of opening a new one. fn returning an
	// error rolls the transaction back and InTx returns that error unchanged.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Create persists a new record and fills in the store-assigned ID.
	Create(ctx context.Context, sess *Session) error

	// FindByID returns the record or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (Session, error)

	// DeleteByID removes a record, reporting whether it existed.
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteByOwner removes every record for the owner and returns the count.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// RecentByOwner returns up to limit records for the owner ordered by
	// CreatedAt descending.
	RecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Session, error)

	// TouchLastUsed records activity on a session. Best effort; the manager
	// never fails authentication over it.
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// DeleteExpired removes all expired records and returns the count.
	// Intended for periodic sweeping, not for the authentication path.
	DeleteExpired(ctx context.Context) (int64, error)
}

// OwnerResolver resolves the owning entity of an authenticated session.
// Implementations typically wrap a user or service-account repository.
type OwnerResolver[Owner any] interface {
	Resolve(ctx context.Context, ownerID uuid.UUID) (Owner, error)
}

// OwnerResolverFunc adapts a plain function to the OwnerResolver interface.
type OwnerResolverFunc[Owner any] func(ctx context.Context, ownerID uuid.UUID) (Owner, error)

// Resolve implements OwnerResolver.
func (f OwnerResolverFunc[Owner]) Resolve(ctx context.Context, ownerID uuid.UUID) (Owner, error) {
	return f(ctx, ownerID)
}
