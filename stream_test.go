package jrm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var errTestUpstream = errors.New("boom")

func rowSourceFrom(recs ...*Record) RowSource {
	return func(yield func(*Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func TestStreamInsert_Autocommit(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectExec(`INSERT INTO logs`).WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO logs`).WithArgs("b").WillReturnResult(sqlmock.NewResult(2, 1))

	r1 := NewRecord()
	r1.Set("msg", "a")
	r2 := NewRecord()
	r2.Set("msg", "b")

	res := db.StreamInsert(context.Background(), rowSourceFrom(r1, r2), "logs", IntCommit(0))
	require.Equal(t, 0, res.Status, res.Message)
	require.Equal(t, int64(2), res.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamInsert_BatchedTransaction(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO logs`).WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO logs`).WithArgs("b").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	r1 := NewRecord()
	r1.Set("msg", "a")
	r2 := NewRecord()
	r2.Set("msg", "b")

	res := db.StreamInsert(context.Background(), rowSourceFrom(r1, r2), "logs", IntCommit(2))
	require.Equal(t, 0, res.Status, res.Message)
	require.Equal(t, int64(2), res.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestStreamInsert_AbortsOnUpstreamError mirrors stream_test.py's 3-row
// stream with a failing row 2: record_count must equal the row number the
// stream aborted at (rows consumed, not rows inserted), and the in-flight
// transaction must roll back rather than commit.
func TestStreamInsert_AbortsOnUpstreamError(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO logs`).WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	r1 := NewRecord()
	r1.Set("msg", "a")

	src := func(yield func(*Record, error) bool) {
		if !yield(r1, nil) {
			return
		}
		yield(nil, errTestUpstream)
	}

	res := db.StreamInsert(context.Background(), src, "logs", IntCommit(10))
	require.Equal(t, -1, res.Status)
	require.Equal(t, int64(2), res.Count)
	require.Contains(t, res.Message, "stream aborted")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamQuery_CursorRows(t *testing.T) {
	db, mock := newMockDb(t)
	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2))
	mock.ExpectQuery(`SELECT id FROM logs`).WillReturnRows(rows)

	cur, err := db.StreamQuery(context.Background(), "SELECT id FROM logs", nil)
	require.NoError(t, err)
	defer cur.Close()

	var ids []int64
	for rec, err := range cur.Rows() {
		require.NoError(t, err)
		v, _ := rec.Get("id")
		ids = append(ids, v.(int64))
	}
	require.Equal(t, []int64{1, 2}, ids)
}

func TestStreamQueryBatch(t *testing.T) {
	db, mock := newMockDb(t)
	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3))
	mock.ExpectQuery(`SELECT id FROM logs`).WillReturnRows(rows)

	var batches []*RecordBatch
	for batch, err := range db.StreamQueryBatch(context.Background(), "SELECT id FROM logs", nil, 2) {
		require.NoError(t, err)
		batches = append(batches, batch)
	}

	require.Len(t, batches, 2)
	require.Len(t, batches[0].Records, 2)
	require.Equal(t, int64(2), batches[0].CumulativeCount)
	require.Len(t, batches[1].Records, 1)
	require.Equal(t, int64(3), batches[1].CumulativeCount)
}

func TestStreamToCSV(t *testing.T) {
	db, mock := newMockDb(t)
	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice").AddRow(int64(2), "bob")
	mock.ExpectQuery(`SELECT id, name FROM users`).WillReturnRows(rows)

	var buf strings.Builder
	n, err := db.StreamToCSV(context.Background(), &buf, "SELECT id, name FROM users", nil, CSVOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Contains(t, buf.String(), "id,name")
	require.Contains(t, buf.String(), "1,alice")
	require.Contains(t, buf.String(), "2,bob")
}
