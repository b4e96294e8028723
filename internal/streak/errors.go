package streak

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidCheckInDate is a caller error and is never retried.
	ErrInvalidCheckInDate = errors.New("check-in date is in the future")
	// ErrUnknownGoal is returned when the goal id is not in the goal store.
	ErrUnknownGoal = errors.New("unknown goal")
	// ErrConcurrentModification is transient; retry with a fresh read.
	ErrConcurrentModification = errors.New("goal modified concurrently")
	// ErrStorageUnavailable is transient; the engine already retried with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrStorageUnavailable)
}

func isTransientStorageError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected, lock_not_available
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}
