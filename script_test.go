package jrm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// TestExecuteScript_TransactionCommits mirrors script_test.py's
// three-statement transactional script.
func TestExecuteScript_TransactionCommits(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO a`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO b`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO c`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	script := "INSERT INTO a VALUES (1); INSERT INTO b VALUES (1); INSERT INTO c VALUES (1);"
	res := db.ExecuteScript(context.Background(), script, ScriptOptions{Transaction: true})
	require.Equal(t, 0, res.Status, res.Message)
	require.Equal(t, int64(3), res.Count)
	require.Contains(t, res.Message, "3 statements executed")
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestExecuteScript_TransactionRollsBackWhole mirrors script_test.py's
// failing-statement case: with Transaction set, no partial data persists.
func TestExecuteScript_TransactionRollsBackWhole(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO a`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO bogus`).WillReturnError(errTestUpstream)
	mock.ExpectRollback()

	script := "INSERT INTO a VALUES (1); INSERT INTO bogus VALUES (1);"
	res := db.ExecuteScript(context.Background(), script, ScriptOptions{Transaction: true})
	require.Equal(t, -1, res.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestExecuteScript_AutocommitStopsOnFirstError verifies the default
// non-transactional behavior: statements before the failure keep their
// effect, and the script halts at the first failure.
func TestExecuteScript_AutocommitStopsOnFirstError(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectExec(`INSERT INTO a`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO bogus`).WillReturnError(errTestUpstream)

	script := "INSERT INTO a VALUES (1); INSERT INTO bogus VALUES (1); INSERT INTO c VALUES (1);"
	res := db.ExecuteScript(context.Background(), script, ScriptOptions{})
	require.Equal(t, -1, res.Status)
	require.Equal(t, int64(1), res.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestExecuteScript_ContinueOnError runs every statement regardless of
// earlier failures, the SPEC_FULL.md-supplemented option script_test.py
// itself never exercises.
func TestExecuteScript_ContinueOnError(t *testing.T) {
	db, mock := newMockDb(t)
	mock.ExpectExec(`INSERT INTO a`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO bogus`).WillReturnError(errTestUpstream)
	mock.ExpectExec(`INSERT INTO c`).WillReturnResult(sqlmock.NewResult(1, 1))

	script := "INSERT INTO a VALUES (1); INSERT INTO bogus VALUES (1); INSERT INTO c VALUES (1);"
	res := db.ExecuteScript(context.Background(), script, ScriptOptions{ContinueOnError: true})
	require.Equal(t, -1, res.Status)
	require.Equal(t, int64(2), res.Count)
	require.Contains(t, res.Message, "1 of 3 statements failed")
	require.NoError(t, mock.ExpectationsWereMet())
}
