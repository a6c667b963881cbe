package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrEmptyConnectionString is returned when no connection string is
	// configured. Set PG_CONN_URL.
	ErrEmptyConnectionString = errors.New("pg: empty connection string")

	// ErrFailedToParseConfig is returned when the connection string cannot
	// be parsed.
	ErrFailedToParseConfig = errors.New("pg: failed to parse connection config")

	// ErrFailedToOpenConnection is returned when the pool cannot be
	// established after the configured retries.
	ErrFailedToOpenConnection = errors.New("pg: failed to open connection")

	// ErrHealthcheckFailed is returned when the connection is not available.
	ErrHealthcheckFailed = errors.New("pg: healthcheck failed")

	// ErrFailedToApplyMigrations is returned when goose cannot bring the
	// schema up to date.
	ErrFailedToApplyMigrations = errors.New("pg: failed to apply migrations")
)

// PostgreSQL error codes this package classifies.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsNotFound reports whether err is a no-rows result.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a referential integrity
// violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

// IsTxClosed reports whether err came from using an already finished
// transaction.
func IsTxClosed(err error) bool {
	return errors.Is(err, pgx.ErrTxClosed)
}
