package jrm

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log"
	"time"

	"github.com/jrm-go/jrm/internal/condition"
	"github.com/jrm-go/jrm/internal/csvio"
)

// Cursor streams a query's results row by row without buffering the full
// result set in memory, the Go-idiomatic analogue of spec.md §4.8's
// stream_query generator (which yields (row_num, row, status) tuples).
// Grounded on database/sql.Rows' own Next/Scan/Err/Close shape, already
// mirrored one layer down by internal/sqlscan.CursorRows.
type Cursor struct {
	rows   AdapterRows
	rowNum int
	err    error
	done   bool
}

// StreamQuery opens a streaming cursor over sql. Callers must Close it.
func (db *Db) StreamQuery(ctx context.Context, sql string, args []any) (*Cursor, error) {
	start := time.Now()
	rows, err := db.client.adapter.QueryRows(ctx, sql, args)
	log.Printf("jrm: stream_query %q args=%v took=%s", sql, args, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err)
	}
	return &Cursor{rows: rows}, nil
}

// Next advances the cursor. It returns false at end-of-results or on
// error; check Err afterward to distinguish the two.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if !c.rows.Next() {
		if c.err == nil {
			c.err = c.rows.Err()
		}
		c.done = true
		return false
	}
	c.rowNum++
	return true
}

// Scan decodes the current row.
func (c *Cursor) Scan() (*Record, error) {
	rec, err := c.rows.Scan()
	if err != nil && c.err == nil {
		c.err = err
	}
	return rec, err
}

// RowNum reports the 1-based ordinal of the row last returned by Next.
func (c *Cursor) RowNum() int { return c.rowNum }

// Err reports the first error Next or Scan encountered, if any.
func (c *Cursor) Err() error { return c.err }

// Close releases the underlying driver cursor.
func (c *Cursor) Close() error { return c.rows.Close() }

// Rows adapts the cursor to a RowSource, so a StreamQuery result can feed
// directly into StreamInsert/StreamMerge without an intermediate buffer
// (spec.md §4.8's stream_query -> stream_insert pipeline).
func (c *Cursor) Rows() RowSource {
	return func(yield func(*Record, error) bool) {
		for c.Next() {
			rec, err := c.Scan()
			if !yield(rec, err) || err != nil {
				return
			}
		}
		if c.err != nil {
			yield(nil, c.err)
		}
	}
}

// RecordBatch is stream_query_batch's yielded unit: a fixed-size slice of
// records plus the running row count across every batch yielded so far.
type RecordBatch struct {
	CumulativeCount int64
	Records         []*Record
}

// BatchSource is RecordBatch's range-over-func analogue of RowSource, the
// Go idiom for spec.md §4.8's stream_query_batch
// (cumulative_count, batch_of_records, batch_status) tuples.
type BatchSource = iter.Seq2[*RecordBatch, error]

// StreamQueryBatch runs sql and yields fixed-size batches of records
// instead of StreamQuery's row-by-row Cursor, for consumers that do their
// own per-batch work (bulk re-insert, batched HTTP calls) and would rather
// not pay per-row overhead. batchSize<=0 uses DefaultStreamBatchSize. A
// short final batch is yielded if the result set doesn't divide evenly;
// a decoding error yields a terminal (nil, err) tuple and stops the
// sequence, per spec.md §4.8's batch_status.
func (db *Db) StreamQueryBatch(ctx context.Context, sql string, args []any, batchSize int) BatchSource {
	if batchSize <= 0 {
		batchSize = DefaultStreamBatchSize
	}
	return func(yield func(*RecordBatch, error) bool) {
		cur, err := db.StreamQuery(ctx, sql, args)
		if err != nil {
			yield(nil, err)
			return
		}
		defer cur.Close()

		var cumulative int64
		batch := make([]*Record, 0, batchSize)
		for cur.Next() {
			rec, err := cur.Scan()
			if err != nil {
				yield(nil, fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
				return
			}
			batch = append(batch, rec)
			cumulative++
			if len(batch) == batchSize {
				if !yield(&RecordBatch{CumulativeCount: cumulative, Records: batch}, nil) {
					return
				}
				batch = make([]*Record, 0, batchSize)
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
			return
		}
		if len(batch) > 0 {
			yield(&RecordBatch{CumulativeCount: cumulative, Records: batch}, nil)
		}
	}
}

// RowSource is a push-style row generator: the Go analogue of spec.md
// §4.8's (row_num, row, status) stream tuples, with row_num tracked by the
// consumer and status folded into the (row, err) pair — a non-nil err
// aborts the stream after that row is counted. Built on the standard
// library's range-over-func iterator shape (iter.Seq2) so StreamInsert/
// StreamUpdate/StreamMerge can be driven with a plain `for row, err :=
// range src` loop, or fed by Cursor.Rows, a transform wrapped around it,
// or a caller-authored generator.
type RowSource = iter.Seq2[*Record, error]

// UpdateOp is one stream_update operation: the new column values plus the
// WHERE condition selecting which rows to apply them to.
type UpdateOp struct {
	Data  *Record
	Where Condition
}

// UpdateSource is RowSource's analogue for stream_update.
type UpdateSource = iter.Seq2[*UpdateOp, error]

// batchTx drives a caller-supplied step function over a stream, rotating
// through a sequence of transactions that each commit after commitEvery
// successful steps. commitEvery<=0 means no explicit transaction at all —
// every step runs and commits independently (autocommit), matching
// commit_count=0 in spec.md §4.8.
type batchTx struct {
	db          *Db
	commitEvery int
	tx          AdapterTx
	adapter     Adapter
	count       int
}

func newBatchTx(ctx context.Context, db *Db, commitEvery *int) (*batchTx, error) {
	every := DefaultCommitEvery
	if commitEvery != nil {
		every = *commitEvery
	}
	return &batchTx{db: db, commitEvery: every, adapter: db.client.adapter}, nil
}

func (b *batchTx) begin(ctx context.Context) error {
	tx, err := b.db.client.adapter.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	b.tx = tx
	b.adapter = &txAdapterShim{AdapterTx: tx, dialect: b.db.dialect()}
	return nil
}

// step runs fn against the batch's current adapter, opening a fresh
// transaction first if commitEvery>0 and none is open, and commits (then
// drops back to autocommit) once commitEvery successful steps have
// landed since the last commit. Rotation is lazy: a transaction opened
// for one batch is never re-opened speculatively for a batch that never
// arrives, so a stream ending exactly on a commit boundary leaves no
// dangling empty transaction for finish to commit.
func (b *batchTx) step(ctx context.Context, fn func(Adapter) *Result) *Result {
	if b.commitEvery > 0 && b.tx == nil {
		if err := b.begin(ctx); err != nil {
			return errResult(err)
		}
	}
	res := fn(b.adapter)
	if res.Status != 0 {
		return res
	}
	b.count++
	if b.tx != nil && b.commitEvery > 0 && b.count%b.commitEvery == 0 {
		if err := b.tx.Commit(); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
		}
		b.tx = nil
		b.adapter = b.db.client.adapter
	}
	return res
}

// finish commits any still-open transaction at stream end.
func (b *batchTx) finish() error {
	if b.tx == nil {
		return nil
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err)
	}
	return nil
}

// abort rolls back the in-flight transaction after an error.
func (b *batchTx) abort() {
	if b.tx != nil {
		b.tx.Rollback()
	}
}

// StreamInsert consumes src and inserts each row into table, committing
// every commitEvery rows (nil -> DefaultCommitEvery, &0 -> autocommit).
// It stops at the first row carrying a non-nil error and rolls back the
// in-flight transaction; Result.Count is the number of rows consumed from
// src, including the row that failed.
func (db *Db) StreamInsert(ctx context.Context, src RowSource, table string, commitEvery *int) *Result {
	b, err := newBatchTx(ctx, db, commitEvery)
	if err != nil {
		return errResult(err)
	}

	rowNum := 0
	for row, rowErr := range src {
		rowNum++
		if rowErr != nil {
			b.abort()
			return &Result{Status: -1, Message: fmt.Errorf("%w: row %d: %v", ErrStreamAborted, rowNum, rowErr).Error(), Count: int64(rowNum)}
		}
		if row == nil || row.Len() == 0 {
			b.abort()
			return &Result{Status: -1, Message: fmt.Sprintf("empty row at %d", rowNum), Count: int64(rowNum)}
		}
		res := b.step(ctx, func(a Adapter) *Result { return execInsertOne(ctx, a, table, row, nil) })
		if res.Status != 0 {
			b.abort()
			return &Result{Status: -1, Message: res.Message, Count: int64(rowNum)}
		}
	}
	if err := b.finish(); err != nil {
		return errResult(err)
	}
	return &Result{Status: 0, Message: fmt.Sprintf("%d records inserted", rowNum), Count: int64(rowNum)}
}

// StreamUpdate consumes src and runs one UPDATE per operation, under the
// same batched-transaction and abort-on-error rules as StreamInsert.
func (db *Db) StreamUpdate(ctx context.Context, src UpdateSource, table string, commitEvery *int) *Result {
	b, err := newBatchTx(ctx, db, commitEvery)
	if err != nil {
		return errResult(err)
	}

	rowNum := 0
	for op, rowErr := range src {
		rowNum++
		if rowErr != nil {
			b.abort()
			return &Result{Status: -1, Message: fmt.Errorf("%w: row %d: %v", ErrStreamAborted, rowNum, rowErr).Error(), Count: int64(rowNum)}
		}
		if op == nil || op.Data == nil {
			b.abort()
			return &Result{Status: -1, Message: fmt.Sprintf("invalid row format at %d: missing data", rowNum), Count: int64(rowNum)}
		}
		res := b.step(ctx, func(a Adapter) *Result { return execUpdate(ctx, a, table, op.Data, op.Where) })
		if res.Status != 0 {
			b.abort()
			return &Result{Status: -1, Message: res.Message, Count: int64(rowNum)}
		}
	}
	if err := b.finish(); err != nil {
		return errResult(err)
	}
	return &Result{Status: 0, Message: fmt.Sprintf("%d records updated", rowNum), Count: int64(rowNum)}
}

// StreamMerge consumes src and upserts each row into table by keyColumns,
// under the same batched-transaction and abort-on-error rules as
// StreamInsert.
func (db *Db) StreamMerge(ctx context.Context, src RowSource, table string, keyColumns []string, commitEvery *int) *Result {
	b, err := newBatchTx(ctx, db, commitEvery)
	if err != nil {
		return errResult(err)
	}

	rowNum := 0
	for row, rowErr := range src {
		rowNum++
		if rowErr != nil {
			b.abort()
			return &Result{Status: -1, Message: fmt.Errorf("%w: row %d: %v", ErrStreamAborted, rowNum, rowErr).Error(), Count: int64(rowNum)}
		}
		if row == nil || row.Len() == 0 {
			b.abort()
			return &Result{Status: -1, Message: fmt.Sprintf("empty row at %d", rowNum), Count: int64(rowNum)}
		}
		res := b.step(ctx, func(a Adapter) *Result { return execMerge(ctx, a, table, row, keyColumns, nil, false) })
		if res.Status != 0 {
			b.abort()
			return &Result{Status: -1, Message: res.Message, Count: int64(rowNum)}
		}
	}
	if err := b.finish(); err != nil {
		return errResult(err)
	}
	return &Result{Status: 0, Message: fmt.Sprintf("%d records merged", rowNum), Count: int64(rowNum)}
}

// MergeSelectOptions configures MergeSelect: either SourceTable (plus
// optional Conditions/OrderBy) or a literal SourceSelect drives the rows
// that get merged into TargetTable by KeyColumns.
type MergeSelectOptions struct {
	SourceTable   string
	SourceSelect  string // takes precedence over SourceTable/Conditions/OrderBy when set
	TargetTable   string
	InsertColumns []string
	KeyColumns    []string
	UpdateColumns []string // nil -> InsertColumns minus KeyColumns
	Conditions    Condition
	OrderBy       string
}

// MergeSelect reads rows from a source table or SELECT and upserts each
// into the target table, per spec.md §4.8's merge_select. Unlike
// StreamMerge (which drives one dialect-native MERGE/UPSERT statement per
// row from an already-open generator), MergeSelect owns both sides: it
// runs the source SELECT itself and merges every row it gets back.
func (db *Db) MergeSelect(ctx context.Context, opts MergeSelectOptions) *Result {
	selectSQL, args, err := db.buildMergeSelectSQL(opts)
	if err != nil {
		return errResult(err)
	}
	res := db.runQuery(ctx, selectSQL, args)
	if res.Status != 0 {
		return res
	}

	var total int64
	for _, rec := range res.Data {
		mergeRec := NewRecord()
		for _, c := range opts.InsertColumns {
			v, _ := rec.Get(c)
			mergeRec.Set(c, v)
		}
		mres := db.Merge(ctx, opts.TargetTable, mergeRec, opts.KeyColumns, opts.UpdateColumns, false)
		if mres.Status != 0 {
			return mres
		}
		total++
	}
	return &Result{Status: 0, Message: fmt.Sprintf("%d records merged", total), Count: total}
}

func (db *Db) buildMergeSelectSQL(opts MergeSelectOptions) (string, []any, error) {
	if opts.SourceSelect != "" {
		return opts.SourceSelect, nil, nil
	}
	whereSQL, args, err := condition.CompileWhere(map[string]any(opts.Conditions), db.dialect().Placeholder)
	if err != nil {
		return "", nil, wrapConditionErr(err)
	}
	sql := fmt.Sprintf("SELECT %s FROM %s%s", joinColumns(opts.InsertColumns), opts.SourceTable, whereSQL)
	if opts.OrderBy != "" {
		sql += " ORDER BY " + opts.OrderBy
	}
	return sql, args, nil
}

func joinColumns(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

// CSVOptions configures StreamToCSV's output formatting.
type CSVOptions = csvio.Options

// StreamToCSV runs sql and writes every result row to w as CSV without
// buffering the full result set, per spec.md §4.8's stream_to_csv. It
// returns the number of rows written.
func (db *Db) StreamToCSV(ctx context.Context, w io.Writer, sql string, args []any, opts CSVOptions) (int64, error) {
	cur, err := db.StreamQuery(ctx, sql, args)
	if err != nil {
		return 0, err
	}
	defer cur.Close()

	cw := csvio.NewWriter(w, opts)
	var n int64
	var cols []string
	for cur.Next() {
		rec, err := cur.Scan()
		if err != nil {
			return n, fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err)
		}
		if cols == nil {
			cols = rec.Columns()
			if err := cw.WriteHeader(cols); err != nil {
				return n, err
			}
		}
		values := make([]any, len(cols))
		for i, c := range cols {
			values[i], _ = rec.Get(c)
		}
		if err := cw.WriteRow(values); err != nil {
			return n, err
		}
		n++
	}
	if err := cur.Err(); err != nil {
		return n, fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err)
	}
	return n, cw.Flush()
}
