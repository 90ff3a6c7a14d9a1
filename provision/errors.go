package provision

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsDuplicateObject reports whether err is the server rejecting creation
// of an object that already exists (type, table, schema, database or role).
func IsDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.DuplicateObject,
		pgerrcode.DuplicateTable,
		pgerrcode.DuplicateSchema,
		pgerrcode.DuplicateDatabase:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// e.g. a bulk load colliding with an existing incident_number.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsInvalidEnumInput reports whether err is the server rejecting a value
// outside an enum's label set.
func IsInvalidEnumInput(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

// describeError prefixes well-known server error conditions so step
// failures name the condition, not just the SQLSTATE.
func describeError(err error) error {
	switch {
	case IsUniqueViolation(err):
		return fmt.Errorf("duplicate key: %w", err)
	case IsDuplicateObject(err):
		return fmt.Errorf("object already exists: %w", err)
	case IsInvalidEnumInput(err):
		return fmt.Errorf("value outside enum labels: %w", err)
	default:
		return err
	}
}
