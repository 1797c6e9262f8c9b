package jrm

import (
	"context"
	"database/sql"
)

// Adapter is the interface every backend driver package implements.
// Adapted from the teacher's DBAdapter (interfaces.go), generalized from a
// struct-reflection ORM adapter into a plain SQL-dispatch adapter: instead
// of Get/Select scanning into caller structs, Query/Exec operate on
// *Record and raw SQL produced by the condition compiler and value
// formatter.
type Adapter interface {
	// Query runs a SELECT and returns all rows as records, in column
	// order reported by the driver.
	Query(ctx context.Context, query string, args []any) ([]*Record, []string, error)

	// Exec runs DML/DDL and returns the driver's sql.Result.
	Exec(ctx context.Context, query string, args []any) (sql.Result, error)

	// QueryRows opens a streaming cursor over a SELECT. Callers must
	// Close the returned AdapterRows.
	QueryRows(ctx context.Context, query string, args []any) (AdapterRows, error)

	BeginTx(ctx context.Context, opts *sql.TxOptions) (AdapterTx, error)

	// Dialect returns the immutable dialect descriptor for this adapter.
	Dialect() Dialect

	// EnsureAutocommit restores autocommit=on at the session level. For
	// stdlib database/sql-backed adapters this is a no-op (autocommit is
	// implicit per-statement outside of an explicit *sql.Tx); backends
	// with session-level state that persists across checkouts (Spark)
	// override it.
	EnsureAutocommit(ctx context.Context) error

	// Ping probes connection liveness for the pool's checkout probe.
	Ping(ctx context.Context) error

	DB() *sql.DB
	Close() error
}

// AdapterTx mirrors Adapter's query surface inside a transaction.
type AdapterTx interface {
	Query(ctx context.Context, query string, args []any) ([]*Record, []string, error)
	Exec(ctx context.Context, query string, args []any) (sql.Result, error)
	QueryRows(ctx context.Context, query string, args []any) (AdapterRows, error)
	Commit() error
	Rollback() error
}

// AdapterRows is the streaming-cursor surface the streaming engine drives.
// Implementations wrap *sql.Rows (internal/sqlscan.CursorRows, used by
// every driver package including Spark).
type AdapterRows interface {
	Next() bool
	Scan() (*Record, error)
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Dialect is the per-backend dialect descriptor from spec.md §3/§4.5. It
// is immutable and freely shared across goroutines once constructed.
type Dialect interface {
	Name() BackendType

	// Quote quotes a single identifier (table or column name).
	Quote(identifier string) string

	// Placeholder renders the Nth (1-based) bind placeholder in this
	// dialect's native style.
	Placeholder(n int) string

	// PlaceholderStyle reports which of the four normalized styles this
	// dialect's driver requires, for internal/placeholder.
	PlaceholderStyle() PlaceholderStyle

	// SupportsReturning reports whether INSERT ... RETURNING <cols> is
	// available (PostgreSQL only per spec.md §4.4).
	SupportsReturning() bool

	// AutocommitDefault reports the default autocommit state for a fresh
	// connection (true for OLTP backends, always-on for Spark).
	AutocommitDefault() bool

	// BuildUpsert renders a dialect-specific UPSERT statement. See
	// internal/dialect for the per-backend templates.
	BuildUpsert(table string, dataCols, keyCols, updateCols []string, noUpdate bool) string

	// SupportsParameterizedQueries reports whether this dialect session
	// currently supports bound placeholders at all (false only for older
	// Spark sessions, per spec.md §4.10).
	SupportsParameterizedQueries() bool

	// CursorKind reports whether rows are fetched dict-style (column name
	// keyed, the default) or tuple-style. Carried from spec.md §3 for
	// parity with sources that distinguish DictCursor vs plain cursor;
	// jrm always produces *Record (dict-style) regardless, so this is
	// informational for drivers that must select a cursor factory.
	CursorKind() CursorKind
}

// PlaceholderStyle enumerates the four input styles spec.md §4.1 names.
type PlaceholderStyle int

const (
	PlaceholderQuestion     PlaceholderStyle = iota // ?
	PlaceholderDollarN                              // $1, $2, ...
	PlaceholderNamedColon                           // :name
	PlaceholderNamedPercent                         // %(name)s
)

// CursorKind distinguishes dict-returning vs tuple-returning cursor
// factories, per spec.md §3's dialect descriptor.
type CursorKind int

const (
	CursorDict CursorKind = iota
	CursorTuple
)
