package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a referenced product or service does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a transactional write could not be serialized
	// within the retry budget. Nothing is written for the failed attempt.
	ErrConflict = errors.New("serialization conflict")

	// ErrValidation is returned for malformed input, before any store access.
	ErrValidation = errors.New("validation failed")
)

// Adjustment reports the pre- and post-adjustment quantity for one
// (product, branch) pair.
type Adjustment struct {
	Before int64
	After  int64
}

// IsSerializationFailure reports whether err is a transient conflict worth
// retrying: a serialization failure, a deadlock, or losing a race to create
// the same row.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505":
		return true
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign-key violation,
// i.e. the referenced parent row does not exist.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
