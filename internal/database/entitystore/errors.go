package entitystore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"
)

var (
	// ErrTransactionAborted marks a multi-row write that was rolled back.
	// The underlying cause stays reachable through errors.Is / errors.As.
	ErrTransactionAborted = errors.New("transaction aborted")

	// ErrRetrievalFailed marks a read that failed for a reason other than
	// the row being absent.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrNotFound is returned by single-row operations outside the Reader
	// (updates, deletes, lookups by a secondary key) when nothing matched.
	ErrNotFound = errors.New("record not found")
)

func aborted(err error) error {
	return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
}

func retrievalFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
}

// SQL Server error numbers that indicate rejected data rather than an
// infrastructure failure.
var mssqlConstraintErrors = map[int32]bool{
	515:  true, // NULL into NOT NULL column
	547:  true, // CHECK / FOREIGN KEY
	2601: true, // duplicate key in unique index
	2627: true, // unique constraint
	2628: true, // string or binary data would be truncated
	8152: true, // string or binary data would be truncated (pre 2019)
}

// IsConstraintViolation reports whether err was caused by the store
// rejecting the data itself: length limits, uniqueness, foreign keys,
// NOT NULL or CHECK constraints.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23: integrity constraint violation, 22001: string too long.
		return strings.HasPrefix(pgErr.Code, "23") || pgErr.Code == "22001"
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return mssqlConstraintErrors[msErr.Number]
	}

	return false
}
