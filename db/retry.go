package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Querier is the full query surface the repositories depend on. *sql.DB
// satisfies it directly; Retrying decorates it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const retryDelay = 1200 * time.Millisecond

// Retrying wraps a Querier so that a transient connectivity failure is retried
// exactly once after a fixed delay. Non-transient errors, and a failure of the
// retry itself, propagate unchanged. One explicit decorator covers every
// accessor uniformly; repositories never duplicate retry logic.
type Retrying struct {
	q      Querier
	delay  time.Duration
	logger *slog.Logger
}

func NewRetrying(q Querier, logger *slog.Logger) *Retrying {
	return &Retrying{q: q, delay: retryDelay, logger: logger}
}

func (r *Retrying) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil && IsTransientError(err) {
		r.logRetry(err)
		r.sleep(ctx)
		return r.q.ExecContext(ctx, query, args...)
	}
	return res, err
}

func (r *Retrying) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil && IsTransientError(err) {
		r.logRetry(err)
		r.sleep(ctx)
		return r.q.QueryContext(ctx, query, args...)
	}
	return rows, err
}

// QueryRowContext defers errors to Scan, so the decorator inspects Row.Err to
// decide whether the underlying query failed transiently before handing the
// row to the caller.
func (r *Retrying) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	row := r.q.QueryRowContext(ctx, query, args...)
	if err := row.Err(); err != nil && IsTransientError(err) {
		r.logRetry(err)
		r.sleep(ctx)
		return r.q.QueryRowContext(ctx, query, args...)
	}
	return row
}

func (r *Retrying) sleep(ctx context.Context) {
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
	}
}

func (r *Retrying) logRetry(err error) {
	if r.logger != nil {
		r.logger.Warn("transient database error, retrying once", slog.Any("error", err))
	}
}

// Connection-exception SQLSTATEs plus too_many_connections and the shutdown
// states an unplanned failover produces.
var transientSQLStates = map[string]bool{
	"08000": true, // connection_exception
	"08001": true, // sqlclient_unable_to_establish_sqlconnection
	"08003": true, // connection_does_not_exist
	"08004": true, // sqlserver_rejected_establishment_of_sqlconnection
	"08006": true, // connection_failure
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"connection terminated",
	"broken pipe",
	"timeout",
	"timed out",
	"too many connections",
	"unexpected eof",
}

// IsTransientError reports whether an error looks like a retry-safe
// connectivity failure, as opposed to a data or constraint error.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return transientSQLStates[string(pqErr.Code)]
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
