// Package sqlscan holds the row-to-Record scanning logic shared by every
// drivers/db/* adapter built on database/sql. Grounded on the teacher's
// adapter files (drivers/db/postgres/postgres.go, drivers/db/mysql/mysql.go,
// drivers/db/sqlite/sqlite.go), which each carried their own copy of a
// struct-reflection scan helper ("Copied from SQLite adapter - might need
// consolidation", per the original comment); this package is that
// consolidation, retargeted from struct-reflection scanning onto jrm.Record.
package sqlscan

import (
	"database/sql"
	"fmt"

	"github.com/jrm-go/jrm"
)

// scanRow scans into *any per column, which drivers hand back as-is. Most
// database/sql drivers resolve this to native Go types (int64, float64,
// bool, []byte, time.Time, nil); callers needing driver-specific coercion
// (e.g. NUMERIC->string) do it at a higher layer.
func scanRow(rows *sql.Rows, cols []string) (*jrm.Record, error) {
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := jrm.NewRecord()
	for i, c := range cols {
		rec.Set(c, dest[i])
	}
	return rec, nil
}

// All drains a *sql.Rows into a slice of Records plus its column list.
// Closes rows before returning.
func All(rows *sql.Rows) ([]*jrm.Record, []string, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("sqlscan: columns: %w", err)
	}
	var out []*jrm.Record
	for rows.Next() {
		rec, err := scanRow(rows, cols)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlscan: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("sqlscan: rows iteration: %w", err)
	}
	return out, cols, nil
}

// CursorRows implements jrm.AdapterRows over a live *sql.Rows, for the
// streaming engine. Unlike All it does not drain eagerly.
type CursorRows struct {
	rows *sql.Rows
	cols []string
	cur  *jrm.Record
}

// NewCursorRows wraps an open *sql.Rows for streaming consumption.
func NewCursorRows(rows *sql.Rows) (*CursorRows, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlscan: columns: %w", err)
	}
	return &CursorRows{rows: rows, cols: cols}, nil
}

func (c *CursorRows) Next() bool {
	if !c.rows.Next() {
		return false
	}
	rec, err := scanRow(c.rows, c.cols)
	if err != nil {
		c.cur = nil
		return false
	}
	c.cur = rec
	return true
}

func (c *CursorRows) Scan() (*jrm.Record, error) {
	if c.cur == nil {
		return nil, fmt.Errorf("sqlscan: Scan called with no current row")
	}
	return c.cur, nil
}

func (c *CursorRows) Columns() ([]string, error) { return c.cols, nil }
func (c *CursorRows) Err() error                 { return c.rows.Err() }
func (c *CursorRows) Close() error               { return c.rows.Close() }
