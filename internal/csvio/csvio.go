// Package csvio writes query result rows to CSV for stream_to_csv
// (spec.md §2 "Utility I/O", supplemented per SPEC_FULL.md §4). It is
// decoupled from jrm.Record on purpose — only package jrm may import
// internal packages that import jrm back, and csvio is imported from the
// root package, so it operates on plain []any rows instead.
//
// Grounded on cyw0ng95-sqlvibe's pkg/sqlvibe/export.go ExportCSV: a
// header row plus one encoding/csv record per row, with a configurable
// NULL representation.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Options controls Writer's output formatting.
type Options struct {
	Comma      rune   // field delimiter, default ','
	NullString string // representation for a nil value, default ""
}

// Writer wraps encoding/csv.Writer with jrm's value-to-string conversion.
type Writer struct {
	cw   *csv.Writer
	opts Options
}

// NewWriter returns a Writer over w. Call Flush when done.
func NewWriter(w io.Writer, opts Options) *Writer {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = opts.Comma
	return &Writer{cw: cw, opts: opts}
}

// WriteHeader writes the column-name row.
func (w *Writer) WriteHeader(columns []string) error {
	return w.cw.Write(columns)
}

// WriteRow writes one data row, converting each value to its CSV text
// representation.
func (w *Writer) WriteRow(values []any) error {
	row := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			row[i] = w.opts.NullString
			continue
		}
		row[i] = stringify(v)
	}
	return w.cw.Write(row)
}

// Flush flushes any buffered data and reports the writer's sticky error.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
