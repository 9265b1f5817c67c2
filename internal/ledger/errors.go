package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062
	mysqlNoReferenced   = 1452
	mysqlLockTimeout    = 1205
	mysqlDeadlock       = 1213
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// maxAttempts bounds retries of a single statement that hit a transient lock.
const maxAttempts = 3

// retryBackoff is the base delay between attempts.
var retryBackoff = 25 * time.Millisecond

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlNoReferenced
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

func isConstraintViolation(err error) bool {
	if isDuplicateKey(err) || isForeignKeyViolation(err) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1048 column cannot be null, 1406 data too long, 1364 no default value
		switch myErr.Number {
		case 1048, 1406, 1364:
			return true
		}
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 is integrity constraint violation, class 22 is data exception
		return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "23" || pgErr.Code[:2] == "22")
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// isTransient reports lock contention that is worth retrying once more.
func isTransient(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

// wrapStorageErr attaches a ledger error kind to a driver error.
// Errors that already carry a kind, or come from the context, only get the op prefix.
func wrapStorageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case contract.ErrorKind(err) != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %w", op, contract.ErrReferentialViolation, err)
	case isConstraintViolation(err):
		return fmt.Errorf("%s: %w: %w", op, contract.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, contract.ErrStorageUnavailable, err)
	}
}

// withRetry runs a single-statement operation, retrying transient lock errors.
// Batches are never retried here; the caller owns that policy.
func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		s.logger.WithFields(logrus.Fields{"op": op, "attempt": attempt}).WithError(err).Debug("transient storage error")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

// recordErr classifies err and ties record-level kinds to the natural key of the record.
// Storage failures stay plain wrapped errors since they are not about one record.
func recordErr(op, key string, err error) error {
	wrapped := wrapStorageErr(op, err)
	switch contract.ErrorKind(wrapped) {
	case contract.ErrConflict, contract.ErrReferentialViolation, contract.ErrEncoding, contract.ErrNotFound:
		var recErr *contract.RecordError
		if errors.As(wrapped, &recErr) {
			return wrapped
		}
		return contract.NewRecordError(contract.ErrorKind(wrapped), key, wrapped)
	default:
		return wrapped
	}
}
