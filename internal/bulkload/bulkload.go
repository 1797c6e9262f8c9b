// Package bulkload implements the four bulk-load paths spec.md §4.9
// names: PostgreSQL COPY, Db2 ADMIN_CMD LOAD, Spark file-to-table, and a
// generic batched-INSERT fallback for every other backend.
//
// Grounded on johndauphine-dmt/internal/driver/postgres/writer.go's
// WriteBatch (pgx.CopyFrom over an acquired pgxpool connection) for the
// PostgreSQL path, and on longjrm/database/db.py's own insert-chunking
// idiom for the generic fallback (which here just delegates to jrm.Db's
// existing bulk insert). Db2 ADMIN_CMD LOAD and Spark file-to-table have
// no pack precedent; both dispatch a single backend-native SQL statement
// through the already-open jrm.Adapter, in the same style as the stored
// dialect upsert templates in internal/dialect.
package bulkload

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jrm-go/jrm"
)

// Options describes one bulk-load call. Table/Columns/Rows drive the
// PostgreSQL COPY and generic-INSERT paths; SourceFile/Format drive the
// Db2 and Spark file-ingestion paths.
type Options struct {
	Table      string
	Columns    []string
	Rows       [][]any
	SourceFile string
	Format     string // "DEL" (default), "CSV", "ASC" for Db2; file extension for Spark
}

// Postgres bulk-loads rows via the COPY protocol, bypassing per-row
// INSERT/parse overhead entirely. dsn is a pgx-compatible connection
// string; pgxpool manages its own small connection pool for the duration
// of the call.
func Postgres(ctx context.Context, dsn string, opts Options) (int64, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("%w: bulkload: pgxpool.New: %v", jrm.ErrConnection, err)
	}
	defer pool.Close()

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{opts.Table},
		opts.Columns,
		pgx.CopyFromRows(opts.Rows),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: bulkload: COPY: %v", jrm.ErrSyntaxOrDialect, err)
	}
	return n, nil
}

// Db2AdminLoad runs Db2's ADMIN_CMD LOAD stored procedure against a
// server-side file, the fast path for loading data already staged on the
// Db2 server's filesystem.
func Db2AdminLoad(ctx context.Context, adapter jrm.Adapter, opts Options) (*jrm.Result, error) {
	format := opts.Format
	if format == "" {
		format = "DEL"
	}
	cmd := fmt.Sprintf("CALL SYSPROC.ADMIN_CMD('LOAD FROM %s OF %s INSERT INTO %s')", opts.SourceFile, format, opts.Table)
	res, err := adapter.Exec(ctx, cmd, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bulkload: ADMIN_CMD LOAD: %v", jrm.ErrSyntaxOrDialect, err)
	}
	n, _ := res.RowsAffected()
	return &jrm.Result{Count: n}, nil
}

// SparkFileToTable loads a file already visible to the Spark cluster
// (local, HDFS, or object-store path) straight into a managed table,
// skipping a row-by-row INSERT entirely.
func SparkFileToTable(ctx context.Context, adapter jrm.Adapter, opts Options) (*jrm.Result, error) {
	cmd := fmt.Sprintf("LOAD DATA INPATH '%s' INTO TABLE %s", opts.SourceFile, opts.Table)
	res, err := adapter.Exec(ctx, cmd, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bulkload: LOAD DATA: %v", jrm.ErrSyntaxOrDialect, err)
	}
	n, _ := res.RowsAffected()
	return &jrm.Result{Count: n}, nil
}

// Generic delegates to jrm.Db's own chunked multi-value INSERT, the
// fallback for every backend without a native bulk-load primitive.
func Generic(ctx context.Context, db *jrm.Db, table string, records []*jrm.Record, bulkSize int) *jrm.Result {
	return db.Insert(ctx, table, records, nil, bulkSize)
}
