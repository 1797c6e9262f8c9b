package jrm

import (
	"encoding/json"
	"fmt"
)

// Record is an ordered mapping from column name to value. Ordering is
// observable: it determines INSERT column order and CSV column order.
// Adapted from the teacher's OrderedMap (internal/utils/orderedmap.go),
// generalized from a generic JSON helper into the library's core value
// type.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordFromMap builds a Record from a plain map. Key order is
// nondeterministic (Go maps have no order); callers that care about
// column order for INSERT/CSV should build the Record with Set calls
// instead.
func RecordFromMap(m map[string]any) *Record {
	r := NewRecord()
	for k, v := range m {
		r.Set(k, v)
	}
	return r
}

// Set sets the value for a column, preserving first-insertion order.
func (r *Record) Set(column string, value any) *Record {
	if _, exists := r.values[column]; !exists {
		r.keys = append(r.keys, column)
	}
	r.values[column] = value
	return r
}

// Get retrieves the value for a column.
func (r *Record) Get(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the column names in insertion order.
func (r *Record) Columns() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of columns.
func (r *Record) Len() int {
	return len(r.keys)
}

// MarshalJSON emits keys in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.keys {
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("jrm: marshal record key %q: %w", k, err)
		}
		valBytes, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("jrm: marshal record value for %q: %w", k, err)
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')
		buf = append(buf, valBytes...)
		if i < len(r.keys)-1 {
			buf = append(buf, ',')
		}
	}
	buf = append(buf, '}')
	return buf, nil
}

// unionColumns returns the union of columns across a batch of records, in
// first-seen order. Used by the CRUD dispatcher's bulk insert path: all
// rows in a chunk share this column set, and records missing a column are
// bound as NULL.
func unionColumns(records []*Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for _, c := range rec.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}
