package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrSchemaOutOfSync marks a query that referenced a column the deployed
// schema does not have, after the reduced-field fallback was already applied.
// Handlers surface it as "schema out of sync, run migration" instead of a
// generic failure.
var ErrSchemaOutOfSync = errors.New("database schema is out of sync, run migrations")

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// isUndefinedColumn detects SQLSTATE 42703: the safety net for a capability
// snapshot that went stale after startup.
func isUndefinedColumn(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42703"
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}
