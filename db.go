package jrm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jrm-go/jrm/internal/condition"
	"github.com/jrm-go/jrm/internal/valuefmt"
)

// Db is the façade spec.md §2 describes: one client (connection + dialect
// descriptor + database name), wrapped so every CRUD/streaming/
// transaction call compiles through the condition compiler and value
// formatter, dispatches via the dialect descriptor, and returns a
// standardized Result envelope.
//
// Grounded on the teacher's crud.go top-level shape (a façade function
// set operating on one adapter), generalized away from reflection-based
// struct scanning toward the spec's plain Record-based CRUD surface.
type Db struct {
	client *Client
	cfg    ConfigProvider // may be nil; only FetchLimit() is consulted
}

// NewDb wraps a borrowed client in a Db façade. cfg may be nil, in which
// case select's default fetch cap is DefaultFetchLimit.
func NewDb(client *Client, cfg ConfigProvider) *Db {
	return &Db{client: client, cfg: cfg}
}

// DefaultFetchLimit applies when no ConfigProvider is wired and the
// caller's Options.Limit is nil (absent). See DESIGN.md Open Question #2.
const DefaultFetchLimit = 1000

// DefaultBulkSize is insert's default per-statement row count when the
// caller does not specify bulk_size, per spec.md §4.4.
const DefaultBulkSize = 1000

// DefaultCommitEvery is stream_insert/update/merge's default commit
// window, per spec.md §4.8.
const DefaultCommitEvery = 10000

// DefaultStreamBatchSize is stream_query_batch's default batch size,
// per spec.md §4.8.
const DefaultStreamBatchSize = 1000

func (db *Db) dialect() Dialect { return db.client.adapter.Dialect() }

func (db *Db) fetchLimit() int {
	if db.cfg != nil {
		if n := db.cfg.FetchLimit(); n > 0 {
			return n
		}
	}
	return DefaultFetchLimit
}

// Select implements spec.md §4.4 select: SELECT <cols> FROM <table>
// [WHERE ...] [ORDER BY ...] [LIMIT n].
func (db *Db) Select(ctx context.Context, table string, columns []string, where Condition, opts *Options) *Result {
	sql, args, err := db.buildSelectSQL(table, columns, where, opts)
	if err != nil {
		return errResult(err)
	}
	return db.runQuery(ctx, sql, args)
}

func (db *Db) buildSelectSQL(table string, columns []string, where Condition, opts *Options) (string, []any, error) {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	whereSQL, args, err := condition.CompileWhere(map[string]any(where), db.dialect().Placeholder)
	if err != nil {
		return "", nil, wrapConditionErr(err)
	}

	var orderSQL string
	if opts != nil && len(opts.OrderBy) > 0 {
		orderSQL = " ORDER BY " + strings.Join(opts.OrderBy, ", ")
	}

	limitSQL := db.buildLimitSQL(opts)

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s", strings.Join(columns, ", "), table, whereSQL, orderSQL, limitSQL)
	return sql, args, nil
}

// buildLimitSQL implements the Open Question #2 decision: Limit == nil
// means "use the configured fetch cap"; Limit != nil && *Limit == 0 means
// "no LIMIT clause, unbounded" (longjrm's own select_constructor treats
// a literal 0 this way). See DESIGN.md.
func (db *Db) buildLimitSQL(opts *Options) string {
	if opts == nil || opts.Limit == nil {
		return fmt.Sprintf(" LIMIT %d", db.fetchLimit())
	}
	if *opts.Limit == 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", *opts.Limit)
}

// Insert implements spec.md §4.4 insert. A single record takes the
// single-row path (optionally with RETURNING on PostgreSQL); multiple
// records are chunked into bulkSize-row multi-value inserts. bulkSize<=0
// uses DefaultBulkSize.
func (db *Db) Insert(ctx context.Context, table string, records []*Record, returnColumns []string, bulkSize int) *Result {
	if len(records) == 0 {
		return okResult(nil, nil, 0)
	}
	if len(records) == 1 {
		return db.insertOne(ctx, table, records[0], returnColumns)
	}
	if bulkSize <= 0 {
		bulkSize = DefaultBulkSize
	}
	return db.insertBulk(ctx, table, records, bulkSize)
}

func (db *Db) insertOne(ctx context.Context, table string, rec *Record, returnColumns []string) *Result {
	return execInsertOne(ctx, db.client.adapter, table, rec, returnColumns)
}

// execInsertOne is insertOne generalized over an explicit adapter, so
// stream.go's batched transaction rotation can drive the same insert SQL
// through a txAdapterShim instead of the bare client adapter.
func execInsertOne(ctx context.Context, adapter Adapter, table string, rec *Record, returnColumns []string) *Result {
	d := adapter.Dialect()
	cols := rec.Columns()
	placeholders := make([]string, len(cols))
	boundArgs := make([]any, 0, len(cols))
	boundIdx := 0
	for i, c := range cols {
		v, _ := rec.Get(c)
		f := valuefmt.Format(v)
		if f.Inline {
			placeholders[i] = f.SQL
			continue
		}
		boundIdx++
		placeholders[i] = d.Placeholder(boundIdx)
		boundArgs = append(boundArgs, f.Value)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if len(returnColumns) > 0 && d.SupportsReturning() {
		sql += " RETURNING " + strings.Join(returnColumns, ", ")
		start := time.Now()
		records, columns, err := adapter.Query(ctx, sql, boundArgs)
		log.Printf("jrm: insert-returning %q args=%v took=%s", sql, boundArgs, time.Since(start))
		if err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
		}
		return okResult(records, columns, int64(len(records)))
	}

	start := time.Now()
	res, err := adapter.Exec(ctx, sql, boundArgs)
	log.Printf("jrm: exec %q args=%v took=%s", sql, boundArgs, time.Since(start))
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
	}
	n, _ := res.RowsAffected()
	return okResult(nil, nil, n)
}

func (db *Db) insertBulk(ctx context.Context, table string, records []*Record, bulkSize int) *Result {
	cols := unionColumns(records)
	var total int64
	for start := 0; start < len(records); start += bulkSize {
		end := start + bulkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		var rowsSQL []string
		var args []any
		boundIdx := 0
		for _, rec := range chunk {
			placeholders := make([]string, len(cols))
			for i, c := range cols {
				v, _ := rec.Get(c)
				f := valuefmt.Format(v)
				if f.Inline {
					placeholders[i] = f.SQL
					continue
				}
				boundIdx++
				placeholders[i] = db.dialect().Placeholder(boundIdx)
				args = append(args, f.Value)
			}
			rowsSQL = append(rowsSQL, "("+strings.Join(placeholders, ", ")+")")
		}

		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(cols, ", "), strings.Join(rowsSQL, ", "))
		start := time.Now()
		res, err := db.client.adapter.Exec(ctx, sql, args)
		log.Printf("jrm: bulk exec %d rows took=%s", len(chunk), time.Since(start))
		if err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return okResult(nil, nil, total)
}

// Update implements spec.md §4.4 update. data and where values share one
// bind vector; data values come first. Null where is permitted.
func (db *Db) Update(ctx context.Context, table string, data *Record, where Condition) *Result {
	return execUpdate(ctx, db.client.adapter, table, data, where)
}

// execUpdate is Update generalized over an explicit adapter; see
// execInsertOne.
func execUpdate(ctx context.Context, adapter Adapter, table string, data *Record, where Condition) *Result {
	d := adapter.Dialect()
	cols := data.Columns()
	sets := make([]string, len(cols))
	var args []any
	for i, c := range cols {
		v, _ := data.Get(c)
		f := valuefmt.Format(v)
		if f.Inline {
			sets[i] = fmt.Sprintf("%s = %s", c, f.SQL)
			continue
		}
		args = append(args, f.Value)
		sets[i] = fmt.Sprintf("%s = %s", c, d.Placeholder(len(args)))
	}

	startIdx := len(args)
	whereFrag, whereArgs, _, err := condition.Compile(map[string]any(where), startIdx, d.Placeholder)
	if err != nil {
		return errResult(wrapConditionErr(err))
	}
	args = append(args, whereArgs...)

	sql := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))
	if whereFrag != "" {
		sql += " WHERE " + whereFrag
	}

	start := time.Now()
	res, err := adapter.Exec(ctx, sql, args)
	log.Printf("jrm: exec %q args=%v took=%s", sql, args, time.Since(start))
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
	}
	n, _ := res.RowsAffected()
	return okResult(nil, nil, n)
}

// Delete implements spec.md §4.4 delete, symmetrical to Update.
func (db *Db) Delete(ctx context.Context, table string, where Condition) *Result {
	whereSQL, args, err := condition.CompileWhere(map[string]any(where), db.dialect().Placeholder)
	if err != nil {
		return errResult(wrapConditionErr(err))
	}
	sql := fmt.Sprintf("DELETE FROM %s%s", table, whereSQL)

	start := time.Now()
	res, err := db.client.adapter.Exec(ctx, sql, args)
	log.Printf("jrm: exec %q args=%v took=%s", sql, args, time.Since(start))
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
	}
	n, _ := res.RowsAffected()
	return okResult(nil, nil, n)
}

// Merge implements spec.md §4.4 merge: a dialect-specific UPSERT.
// update_columns defaults to "all data columns minus key columns"; when
// noUpdate is true the MATCHED branch is omitted/ignored.
func (db *Db) Merge(ctx context.Context, table string, data *Record, keyColumns, updateColumns []string, noUpdate bool) *Result {
	return execMerge(ctx, db.client.adapter, table, data, keyColumns, updateColumns, noUpdate)
}

// execMerge is Merge generalized over an explicit adapter; see
// execInsertOne.
func execMerge(ctx context.Context, adapter Adapter, table string, data *Record, keyColumns, updateColumns []string, noUpdate bool) *Result {
	d := adapter.Dialect()
	cols := data.Columns()
	sql := d.BuildUpsert(table, cols, keyColumns, updateColumns, noUpdate)

	args := make([]any, 0, len(cols))
	for _, c := range cols {
		v, _ := data.Get(c)
		args = append(args, valuefmt.Format(v).Value)
	}

	start := time.Now()
	res, err := adapter.Exec(ctx, sql, args)
	log.Printf("jrm: merge %q args=%v took=%s", sql, args, time.Since(start))
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
	}
	n, _ := res.RowsAffected()
	return okResult(nil, nil, n)
}

// Execute implements spec.md §4.4 execute: raw DML/DDL, count=rowcount.
func (db *Db) Execute(ctx context.Context, sql string, values []any) *Result {
	start := time.Now()
	res, err := db.client.adapter.Exec(ctx, sql, values)
	log.Printf("jrm: execute %q took=%s", sql, time.Since(start))
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
	}
	n, _ := res.RowsAffected()
	return okResult(nil, nil, n)
}

// Query implements spec.md §4.4 query: raw SELECT, returns all rows up to
// the fetch cap.
func (db *Db) Query(ctx context.Context, sql string, values []any) *Result {
	res := db.runQuery(ctx, sql, values)
	if limit := db.fetchLimit(); res.Status == 0 && len(res.Data) > limit {
		res.Data = res.Data[:limit]
		res.Count = int64(limit)
	}
	return res
}

func (db *Db) runQuery(ctx context.Context, sql string, args []any) *Result {
	start := time.Now()
	records, columns, err := db.client.adapter.Query(ctx, sql, args)
	log.Printf("jrm: query %q args=%v rows=%d took=%s", sql, args, len(records), time.Since(start))
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
	}
	return okResult(records, columns, int64(len(records)))
}
