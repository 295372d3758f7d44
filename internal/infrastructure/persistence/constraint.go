package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
)

// SQLSTATE classes for integrity constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// classifyConstraint inspects a failed write and, when the database rejected
// it over an integrity constraint, wraps it into a ConstraintViolation
// carrying the constraint name. The domain layer switches on that name, so
// classification never has to scrape driver message text. Errors that are
// not integrity violations pass through unchanged.
func classifyConstraint(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && isIntegrityViolation(pgErr.Code) {
		return &provisioning.ConstraintViolation{Constraint: pgErr.ConstraintName, Cause: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && isIntegrityViolation(string(pqErr.Code)) {
		return &provisioning.ConstraintViolation{Constraint: pqErr.Constraint, Cause: err}
	}

	// gorm's driver-agnostic duplicate-key error; raised by the sqlite
	// driver the repository tests run on. The constraint name is not
	// available here, so the violation stays anonymous.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &provisioning.ConstraintViolation{Cause: err}
	}

	return err
}

func isIntegrityViolation(code string) bool {
	switch code {
	case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
		return true
	}
	return false
}
