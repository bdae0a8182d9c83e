package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors for repository operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
	ErrMemeNotFound   = errors.New("meme not found")
)

// PostgreSQL error codes and constraint names the repository maps.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

// pgError extracts a PostgreSQL error from err.
func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgUniqueViolation
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key violation.
func isForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgForeignKeyViolation
}

// userConflict maps a unique violation on users to the matching sentinel.
// Returns nil if err is not a known conflict.
func userConflict(err error) error {
	if !isUniqueViolation(err) {
		return nil
	}
	pgErr, _ := pgError(err)
	switch pgErr.ConstraintName {
	case constraintUsername:
		return ErrUsernameExists
	case constraintEmail:
		return ErrEmailExists
	default:
		return nil
	}
}
