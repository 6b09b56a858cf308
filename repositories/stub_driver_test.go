package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
)

// stubResult is one canned result set, matched against queries by substring.
type stubResult struct {
	match   string
	columns []string
	rows    [][]driver.Value
}

// stubConn serves canned result sets so repository scan and batch-read logic
// can run against a real *sql.DB without a Postgres instance.
type stubConn struct {
	results []stubResult
}

var _ driver.QueryerContext = (*stubConn)(nil)

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	for _, res := range c.results {
		if strings.Contains(query, res.match) {
			return &stubRows{columns: res.columns, rows: res.rows}, nil
		}
	}
	return nil, errors.New("no canned result for query: " + query)
}

type stubRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *stubRows) Columns() []string { return r.columns }

func (r *stubRows) Close() error { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

type stubConnector struct {
	conn *stubConn
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }

func (c stubConnector) Driver() driver.Driver { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open by DSN not supported")
}

func newStubDB(results ...stubResult) *sql.DB {
	return sql.OpenDB(stubConnector{conn: &stubConn{results: results}})
}
