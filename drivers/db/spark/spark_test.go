package spark

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/jrm-go/jrm"
)

func newTestAdapter(t *testing.T, delta bool) (*adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &adapter{db: db, delta: delta}, mock
}

func TestAdapter_Exec_DeltaRequiredForMutations(t *testing.T) {
	a, _ := newTestAdapter(t, false)

	for _, q := range []string{"UPDATE t SET x=1", "DELETE FROM t", "MERGE INTO t USING s ON t.id=s.id WHEN MATCHED THEN UPDATE SET x=1"} {
		_, err := a.Exec(context.Background(), q, nil)
		require.ErrorIs(t, err, jrm.ErrDeltaRequired)
	}
}

func TestAdapter_Exec_DeltaAllowsMutations(t *testing.T) {
	a, mock := newTestAdapter(t, true)
	mock.ExpectExec(`UPDATE t SET x=1`).WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := a.Exec(context.Background(), "UPDATE t SET x=1", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Exec_InsertNeverGated(t *testing.T) {
	a, mock := newTestAdapter(t, false)
	mock.ExpectExec(`INSERT INTO t`).WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := a.Exec(context.Background(), "INSERT INTO t VALUES (1)", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_BeginTx_AlwaysSucceedsNoopCommitRollback(t *testing.T) {
	a, _ := newTestAdapter(t, false)

	tx, err := a.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())
}

func TestTxWrap_Exec_DeltaRequiredForMutations(t *testing.T) {
	a, _ := newTestAdapter(t, false)
	tx, err := a.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	_, err = tx.Exec(context.Background(), "DELETE FROM t", nil)
	require.True(t, errors.Is(err, jrm.ErrDeltaRequired))
}
