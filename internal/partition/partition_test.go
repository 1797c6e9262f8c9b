package partition

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

func newTestAdapter(t *testing.T) (jrm.Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return stdadapter.New(db, jrm.NewDialect(jrm.BackendDb2, dialect.Db2())), mock
}

func TestAddPartition(t *testing.T) {
	adapter, mock := newTestAdapter(t)
	mock.ExpectExec(`ALTER TABLE sales ADD PARTITION p2026 STARTING FROM \(1\) ENDING AT \(2\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := AddPartition(context.Background(), adapter, "sales", "p2026", Bound{Low: "1", High: "2"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDropPartition(t *testing.T) {
	adapter, mock := newTestAdapter(t)
	mock.ExpectExec(`ALTER TABLE sales DROP PARTITION p2026`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := DropPartition(context.Background(), adapter, "sales", "p2026")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachPartition(t *testing.T) {
	adapter, mock := newTestAdapter(t)
	mock.ExpectExec(`ALTER TABLE sales ATTACH PARTITION p2026 STARTING FROM \(1\) ENDING AT \(2\) FROM staging`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := AttachPartition(context.Background(), adapter, "sales", "staging", "p2026", Bound{Low: "1", High: "2"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDetachPartition(t *testing.T) {
	adapter, mock := newTestAdapter(t)
	mock.ExpectExec(`ALTER TABLE sales DETACH PARTITION p2026 INTO sales_archive`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := DetachPartition(context.Background(), adapter, "sales", "p2026", "sales_archive")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecError(t *testing.T) {
	adapter, mock := newTestAdapter(t)
	mock.ExpectExec(`ALTER TABLE sales DROP PARTITION missing`).WillReturnError(context.DeadlineExceeded)

	_, err := DropPartition(context.Background(), adapter, "sales", "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, jrm.ErrSyntaxOrDialect)
}
