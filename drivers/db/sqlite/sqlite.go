// Package sqlite registers the SQLite connector: file-path DSN handling,
// mattn/go-sqlite3 wiring, and the SQLite dialect descriptor (double-quoted
// identifiers, ? placeholders, ON CONFLICT upsert). Grounded on the
// teacher's drivers/db/sqlite/sqlite.go (SQLiteAdapter), generalized onto
// internal/stdadapter + internal/sqlscan. SQLite's single-writer model is
// why jrm picks the reset-on-return pool backend for it (see pool.go's
// NewPoolForBackend).
package sqlite

import (
	"context"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

const (
	defaultMaxOpenConns    = 1 // sqlite3 serializes writers; a single conn avoids SQLITE_BUSY churn
	defaultConnMaxLifetime = 5 * time.Minute
)

func init() {
	jrm.RegisterConnector(jrm.BackendSQLite, connect)
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	dsn := desc.DSN
	if dsn == "" {
		dsn = desc.Database
	}
	d := jrm.NewDialect(jrm.BackendSQLite, dialect.SQLite())
	return stdadapter.Open(ctx, "sqlite3", dsn, d, defaultMaxOpenConns, defaultMaxOpenConns, defaultConnMaxLifetime)
}
