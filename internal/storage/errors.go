package storage

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation matches every ConstraintError.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrMigrationFailed matches every MigrationError.
	ErrMigrationFailed = errors.New("migration failed")
)

// ConstraintKind names the schema rule a write violated.
type ConstraintKind string

// Constraint kinds reported by SQLite.
const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintTrigger    ConstraintKind = "trigger"
	ConstraintOther      ConstraintKind = "other"
)

// ConstraintError is returned when a write is rejected by the schema. It is
// recoverable: the store is unchanged.
type ConstraintError struct {
	Err  error
	Kind ConstraintKind
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConstraintViolation) true for any ConstraintError.
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// MigrationError reports the step that could not be applied. The store
// remains at the version before Version.
type MigrationError struct {
	Err         error
	Description string
	Version     int
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d (%s) failed: %v", e.Version, e.Description, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMigrationFailed) true for any MigrationError.
func (e *MigrationError) Is(target error) bool {
	return target == ErrMigrationFailed
}

// IsConstraintKind reports whether err is a ConstraintError of the given kind.
func IsConstraintKind(err error, kind ConstraintKind) bool {
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == kind
}

// wrapDBError converts SQLite constraint failures into ConstraintError and
// wraps everything else with msg.
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return &ConstraintError{
			Kind: constraintKind(sqliteErr.ExtendedCode),
			Err:  fmt.Errorf("%s: %w", msg, err),
		}
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func constraintKind(code sqlite3.ErrNoExtended) ConstraintKind {
	switch code {
	case sqlite3.ErrConstraintUnique:
		return ConstraintUnique
	case sqlite3.ErrConstraintForeignKey:
		return ConstraintForeignKey
	case sqlite3.ErrConstraintCheck:
		return ConstraintCheck
	case sqlite3.ErrConstraintNotNull:
		return ConstraintNotNull
	case sqlite3.ErrConstraintPrimaryKey:
		return ConstraintPrimaryKey
	case sqlite3.ErrConstraintTrigger:
		return ConstraintTrigger
	default:
		return ConstraintOther
	}
}
