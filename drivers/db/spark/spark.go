// Package spark registers the Spark/Delta connector. Unlike the stdadapter
// backends, a Spark session is stateful across statements (autocommit is a
// session property, not a per-statement default) and older Spark Thrift
// servers reject bound placeholders outright, so this adapter probes
// parameter support once at connect time and caches the result on the
// dialect wrapper (jrm.SetParameterizedQueriesSupport), per spec.md §4.10.
// A Spark session has no transaction log at all, Delta or not, so BeginTx
// always succeeds and the returned transaction's Commit/Rollback are
// no-ops; what the Delta requirement actually gates is update/delete/merge
// statements themselves, which fail with ErrDeltaRequired unless the
// connection descriptor opts into Delta via options["format"]="delta".
package spark

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/sclgo/sparksql-driver"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/sqlscan"
)

// isDeltaOnlyStatement reports whether query is one of the mutation forms
// spec.md §4.10 restricts to Delta tables: UPDATE, DELETE, MERGE. Plain
// Spark SQL has no row-level transaction log to support them.
func isDeltaOnlyStatement(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(q, "UPDATE") || strings.HasPrefix(q, "DELETE") || strings.HasPrefix(q, "MERGE")
}

func init() {
	jrm.RegisterConnector(jrm.BackendSpark, connect)
}

type adapter struct {
	db      *sql.DB
	dialect jrm.Dialect
	delta   bool
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	dsn := desc.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("sc://%s:%d", desc.Host, desc.Port)
	}
	db, err := sql.Open("spark", dsn)
	if err != nil {
		return nil, fmt.Errorf("spark: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("spark: ping: %w", err)
	}

	d := jrm.NewDialect(jrm.BackendSpark, dialect.Spark())
	a := &adapter{db: db, dialect: d, delta: desc.Options["format"] == "delta"}
	a.probeParamSupport(ctx)
	return a, nil
}

// probeParamSupport runs a trivial parameterized SELECT; Thrift-backed
// Spark sessions older than 3.4 reject it outright. The outcome is recorded
// on the dialect (SupportsParameterizedQueries); statements are still sent
// with bound placeholders either way, since no layer of jrm rewrites them
// into inline literals.
func (a *adapter) probeParamSupport(ctx context.Context) {
	_, err := a.db.QueryContext(ctx, "SELECT ? AS probe", 1)
	supported := err == nil
	if !supported {
		log.Printf("jrm: spark session does not support parameterized queries: %v", err)
	}
	jrm.SetParameterizedQueriesSupport(a.dialect, supported)
}

func (a *adapter) Query(ctx context.Context, query string, args []any) ([]*jrm.Record, []string, error) {
	start := time.Now()
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("jrm: spark query error %q took=%s: %v", query, time.Since(start), err)
		return nil, nil, err
	}
	recs, cols, err := sqlscan.All(rows)
	log.Printf("jrm: spark query %q rows=%d took=%s", query, len(recs), time.Since(start))
	return recs, cols, err
}

func (a *adapter) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	if !a.delta && isDeltaOnlyStatement(query) {
		return nil, fmt.Errorf("%w: update/delete/merge require a Delta table target (set options[\"format\"]=\"delta\")", jrm.ErrDeltaRequired)
	}
	start := time.Now()
	res, err := a.db.ExecContext(ctx, query, args...)
	log.Printf("jrm: spark exec %q took=%s err=%v", query, time.Since(start), err)
	return res, err
}

func (a *adapter) QueryRows(ctx context.Context, query string, args []any) (jrm.AdapterRows, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlscan.NewCursorRows(rows)
}

// BeginTx never opens a real transaction: a Spark session has no
// multi-statement transaction log to begin, commit, or roll back, Delta
// target or not. Mutating statements are still guarded individually by
// isDeltaOnlyStatement in Exec, and the returned txWrap's Commit/Rollback
// are unconditional no-ops.
func (a *adapter) BeginTx(ctx context.Context, opts *sql.TxOptions) (jrm.AdapterTx, error) {
	return &txWrap{db: a.db, delta: a.delta}, nil
}

func (a *adapter) Dialect() jrm.Dialect { return a.dialect }

// EnsureAutocommit re-issues the session-level autocommit statement: a
// checked-out Spark session otherwise carries whatever autocommit state
// the previous borrower left it in.
func (a *adapter) EnsureAutocommit(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, "SET spark.sql.autoCommit=true")
	return err
}

func (a *adapter) Ping(ctx context.Context) error { return a.db.PingContext(ctx) }
func (a *adapter) DB() *sql.DB                     { return a.db }
func (a *adapter) Close() error                    { return a.db.Close() }

// txWrap fakes a transaction scope over the shared *sql.DB. There is no
// underlying sql.Tx: Commit and Rollback are no-ops, and every statement
// runs directly against the session, consistent with spec.md §4.10.
type txWrap struct {
	db    *sql.DB
	delta bool
}

func (t *txWrap) Query(ctx context.Context, query string, args []any) ([]*jrm.Record, []string, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	return sqlscan.All(rows)
}
func (t *txWrap) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	if !t.delta && isDeltaOnlyStatement(query) {
		return nil, fmt.Errorf("%w: update/delete/merge require a Delta table target (set options[\"format\"]=\"delta\")", jrm.ErrDeltaRequired)
	}
	return t.db.ExecContext(ctx, query, args...)
}
func (t *txWrap) QueryRows(ctx context.Context, query string, args []any) (jrm.AdapterRows, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlscan.NewCursorRows(rows)
}
func (t *txWrap) Commit() error   { return nil }
func (t *txWrap) Rollback() error { return nil }
