// Package postgres registers the PostgreSQL connector: DSN assembly,
// pgx/stdlib driver wiring, and the PostgreSQL dialect descriptor
// (double-quoted identifiers, $N placeholders, RETURNING, ON CONFLICT
// upsert). Grounded on the teacher's drivers/db/postgres/postgres.go
// (PostgreSQLAdapter), generalized from struct-reflection scanning onto
// internal/stdadapter + internal/sqlscan and from lib/pq onto jackc/pgx's
// stdlib-compatible driver registration, matching the rest of the pack's
// preference for pgx over lib/pq for new code.
package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

func init() {
	jrm.RegisterConnector(jrm.BackendPostgres, connect)
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	dsn := desc.DSN
	if dsn == "" {
		sslmode := desc.Options["sslmode"]
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			desc.Host, desc.Port, desc.User, desc.Password, desc.Database, sslmode)
	}
	d := jrm.NewDialect(jrm.BackendPostgres, dialect.Postgres())
	a, err := stdadapter.Open(ctx, "pgx", dsn, d, 25, 10, time.Hour)
	if err != nil {
		return nil, err
	}
	return a, nil
}
