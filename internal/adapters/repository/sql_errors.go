package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Postgres SQLSTATE codes the store cares about.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgConnectionClass     = "08"
)

// classify maps driver errors onto the package sentinels. Errors that already
// carry a sentinel keep it; anything unrecognised is a store failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomain(err) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrReferentialIntegrity, pqErr.Message)
		case pqErr.Code == pgCheckViolation, pqErr.Code == pgNotNullViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrInvalidInput, pqErr.Message)
		case string(pqErr.Code.Class()) == pgConnectionClass:
			return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if kind := sqliteKind(liteErr); kind != nil {
			return fmt.Errorf("%s: %w: %s", op, kind, liteErr.Error())
		}
	}

	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func sqliteKind(e *sqlite.Error) error {
	switch e.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ErrReferentialIntegrity
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return ErrInvalidInput
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return ErrStoreUnavailable
	}
	// Without extended result codes only the primary code is set.
	if e.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := strings.ToUpper(e.Error())
		switch {
		case strings.Contains(msg, "FOREIGN KEY"):
			return ErrReferentialIntegrity
		case strings.Contains(msg, "CHECK"), strings.Contains(msg, "NOT NULL"):
			return ErrInvalidInput
		}
	}
	return nil
}

func isDomain(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrReferentialIntegrity) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrStoreUnavailable)
}
