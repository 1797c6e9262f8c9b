package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jrm-go/jrm"
)

// readCSVRecords reads path's header row as column names and every
// subsequent row as a *jrm.Record, all values kept as strings — jrm's
// value formatter and each backend's driver handle whatever coercion the
// target column's type needs.
func readCSVRecords(path string) ([]*jrm.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jrmcli: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("jrmcli: read header: %w", err)
	}

	var records []*jrm.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("jrmcli: read row: %w", err)
		}
		rec := jrm.NewRecord()
		for i, col := range header {
			if i < len(row) {
				rec.Set(col, row[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
