package jrm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockDb(t *testing.T) (*Db, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	return newTestDb(sqldb), mock
}

func TestDb_Insert(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectExec(`INSERT INTO users`).WithArgs("alice", int64(30)).WillReturnResult(sqlmock.NewResult(1, 1))

	rec := NewRecord()
	rec.Set("name", "alice")
	rec.Set("age", 30)

	res := db.Insert(context.Background(), "users", []*Record{rec}, nil, 0)
	require.Equal(t, 0, res.Status, res.Message)
	require.Equal(t, int64(1), res.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDb_Update(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectExec(`UPDATE users SET`).WithArgs("bob", int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))

	rec := NewRecord()
	rec.Set("name", "bob")

	res := db.Update(context.Background(), "users", rec, Condition{"id": 7})
	require.Equal(t, 0, res.Status, res.Message)
	require.Equal(t, int64(1), res.Count)
}

func TestDb_Delete(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))

	res := db.Delete(context.Background(), "users", Condition{"id": 7})
	require.Equal(t, 0, res.Status, res.Message)
	require.Equal(t, int64(1), res.Count)
}

func TestDb_Select(t *testing.T) {
	db, mock := newMockDb(t)
	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice")
	mock.ExpectQuery(`SELECT id, name FROM users`).WillReturnRows(rows)

	res := db.Select(context.Background(), "users", []string{"id", "name"}, nil, nil)
	require.Equal(t, 0, res.Status, res.Message)
	require.Len(t, res.Data, 1)
	v, ok := res.Data[0].Get("name")
	require.True(t, ok)
	require.Equal(t, "alice", v)
}

func TestDb_Select_AmbiguousCondition(t *testing.T) {
	db, _ := newMockDb(t)

	res := db.Select(context.Background(), "users", nil, Condition{"age": map[string]any{"operator": "$gt", "value": 18}}, nil)
	require.Equal(t, -1, res.Status)
	require.Contains(t, res.Message, "ambiguous condition node")
}

func TestDb_Delete_AmbiguousCondition(t *testing.T) {
	db, _ := newMockDb(t)

	res := db.Delete(context.Background(), "users", Condition{"age": map[string]any{"operator": "$gt", "value": 18}})
	require.Equal(t, -1, res.Status)
	require.Contains(t, res.Message, "ambiguous condition node")
}

func TestDb_Merge(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(1, 1))

	rec := NewRecord()
	rec.Set("id", 1)
	rec.Set("name", "carol")

	res := db.Merge(context.Background(), "users", rec, []string{"id"}, nil, false)
	require.Equal(t, 0, res.Status, res.Message)
}
