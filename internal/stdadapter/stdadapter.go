// Package stdadapter is the database/sql-backed jrm.Adapter implementation
// shared by every OLTP driver package (postgres, mysql, sqlite, oracle,
// sqlserver, db2, generic). Grounded on the teacher's three near-identical
// adapter files (drivers/db/{postgres,mysql,sqlite}), which differed only
// in driver name, DSN shape, and dialector; this package is that shared
// core, retargeted from reflection-based struct scanning onto jrm.Record via
// internal/sqlscan. Spark's session-stateful adapter (drivers/db/spark)
// does not use this package.
package stdadapter

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/sqlscan"
)

// Adapter wraps a *sql.DB with a jrm.Dialect to satisfy jrm.Adapter.
type Adapter struct {
	db      *sql.DB
	dialect jrm.Dialect
}

// New wraps an already-open *sql.DB (e.g. one handed back by sqlmock in
// tests, or pre-configured by a caller) in an Adapter bound to dialect.
func New(db *sql.DB, dialect jrm.Dialect) *Adapter {
	return &Adapter{db: db, dialect: dialect}
}

// Open opens driverName with dsn, pings it, applies pool sizing, and
// returns an Adapter bound to dialect.
func Open(ctx context.Context, driverName, dsn string, dialect jrm.Dialect, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*Adapter, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("stdadapter: open %s: %w", driverName, err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if connMaxLifetime > 0 {
		db.SetConnMaxLifetime(connMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("stdadapter: ping %s: %w", driverName, err)
	}
	log.Printf("jrm: %s adapter connected", driverName)
	return &Adapter{db: db, dialect: dialect}, nil
}

func (a *Adapter) Query(ctx context.Context, query string, args []any) ([]*jrm.Record, []string, error) {
	start := time.Now()
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("jrm: query error %q args=%v took=%s: %v", query, args, time.Since(start), err)
		return nil, nil, err
	}
	recs, cols, err := sqlscan.All(rows)
	log.Printf("jrm: query %q args=%v rows=%d took=%s", query, args, len(recs), time.Since(start))
	return recs, cols, err
}

func (a *Adapter) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	start := time.Now()
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("jrm: exec error %q args=%v took=%s: %v", query, args, time.Since(start), err)
		return nil, err
	}
	n, _ := res.RowsAffected()
	log.Printf("jrm: exec %q args=%v affected=%d took=%s", query, args, n, time.Since(start))
	return res, nil
}

func (a *Adapter) QueryRows(ctx context.Context, query string, args []any) (jrm.AdapterRows, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlscan.NewCursorRows(rows)
}

func (a *Adapter) BeginTx(ctx context.Context, opts *sql.TxOptions) (jrm.AdapterTx, error) {
	tx, err := a.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &txWrap{tx: tx}, nil
}

func (a *Adapter) Dialect() jrm.Dialect                  { return a.dialect }
func (a *Adapter) EnsureAutocommit(ctx context.Context) error { return nil }
func (a *Adapter) Ping(ctx context.Context) error             { return a.db.PingContext(ctx) }
func (a *Adapter) DB() *sql.DB                                 { return a.db }
func (a *Adapter) Close() error                                { return a.db.Close() }

type txWrap struct {
	tx *sql.Tx
}

func (t *txWrap) Query(ctx context.Context, query string, args []any) ([]*jrm.Record, []string, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	return sqlscan.All(rows)
}

func (t *txWrap) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *txWrap) QueryRows(ctx context.Context, query string, args []any) (jrm.AdapterRows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlscan.NewCursorRows(rows)
}

func (t *txWrap) Commit() error   { return t.tx.Commit() }
func (t *txWrap) Rollback() error { return t.tx.Rollback() }
