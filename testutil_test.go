package jrm

import (
	"context"
	"database/sql"

	"github.com/jrm-go/jrm/internal/dialect"
)

// testAdapter is a minimal Adapter wrapping a *sql.DB, used by this
// package's own tests to drive sqlmock without reaching for
// internal/stdadapter (which imports this package, and so cannot be
// imported back from an in-package _test.go file without a cycle).
// Shaped the same way as stdadapter.Adapter, just inlined.
type testAdapter struct {
	db      *sql.DB
	dialect Dialect
}

func newTestAdapter(db *sql.DB) *testAdapter {
	return &testAdapter{db: db, dialect: NewDialect(BackendPostgres, dialect.Postgres())}
}

func scanRows(rows *sql.Rows) ([]*Record, []string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var recs []*Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := NewRecord()
		for i, c := range cols {
			rec.Set(c, vals[i])
		}
		recs = append(recs, rec)
	}
	return recs, cols, rows.Err()
}

func (a *testAdapter) Query(ctx context.Context, query string, args []any) ([]*Record, []string, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (a *testAdapter) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	return a.db.ExecContext(ctx, query, args...)
}

func (a *testAdapter) QueryRows(ctx context.Context, query string, args []any) (AdapterRows, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	return &testRows{rows: rows, cols: cols}, nil
}

func (a *testAdapter) BeginTx(ctx context.Context, opts *sql.TxOptions) (AdapterTx, error) {
	tx, err := a.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &testTx{tx: tx}, nil
}

func (a *testAdapter) Dialect() Dialect                  { return a.dialect }
func (a *testAdapter) EnsureAutocommit(ctx context.Context) error { return nil }
func (a *testAdapter) Ping(ctx context.Context) error             { return a.db.PingContext(ctx) }
func (a *testAdapter) DB() *sql.DB                                 { return a.db }
func (a *testAdapter) Close() error                                { return a.db.Close() }

type testRows struct {
	rows *sql.Rows
	cols []string
}

func (r *testRows) Next() bool { return r.rows.Next() }

func (r *testRows) Scan() (*Record, error) {
	vals := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := NewRecord()
	for i, c := range r.cols {
		rec.Set(c, vals[i])
	}
	return rec, nil
}

func (r *testRows) Columns() ([]string, error) { return r.cols, nil }
func (r *testRows) Err() error                 { return r.rows.Err() }
func (r *testRows) Close() error               { return r.rows.Close() }

type testTx struct {
	tx *sql.Tx
}

func (t *testTx) Query(ctx context.Context, query string, args []any) ([]*Record, []string, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (t *testTx) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *testTx) QueryRows(ctx context.Context, query string, args []any) (AdapterRows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	return &testRows{rows: rows, cols: cols}, nil
}

func (t *testTx) Commit() error   { return t.tx.Commit() }
func (t *testTx) Rollback() error { return t.tx.Rollback() }

func newTestDb(db *sql.DB) *Db {
	client := &Client{Backend: BackendPostgres, DatabaseName: "testdb", DriverName: "pgx", adapter: newTestAdapter(db)}
	return NewDb(client, nil)
}
