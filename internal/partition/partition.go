// Package partition implements Db2's range-partition maintenance
// operations (spec.md §4.9's bulk-load neighbor, supplemented per
// SPEC_FULL.md §4 since fast-loading partitioned Db2 tables routinely
// needs ATTACH/DETACH around a LOAD). Every operation dispatches a single
// plain ALTER TABLE statement (not wrapped in ADMIN_CMD) through an
// already-open jrm.Adapter, one statement per call like
// bulkload.Db2AdminLoad.
package partition

import (
	"context"
	"fmt"

	"github.com/jrm-go/jrm"
)

// Bound describes one partition's range, rendered verbatim into the
// generated DDL's VALUES clause; callers are responsible for quoting
// non-numeric bounds (Db2 partition bounds are literal SQL expressions,
// not bind parameters).
type Bound struct {
	Low  string
	High string
}

// AddPartition adds a new range partition to table, online.
func AddPartition(ctx context.Context, adapter jrm.Adapter, table, partitionName string, bound Bound) (*jrm.Result, error) {
	ddl := fmt.Sprintf(
		"ALTER TABLE %s ADD PARTITION %s STARTING FROM (%s) ENDING AT (%s)",
		table, partitionName, bound.Low, bound.High,
	)
	return exec(ctx, adapter, ddl, "ADD PARTITION")
}

// DropPartition drops partitionName from table outright, discarding its
// data. Use DetachPartition instead when the data should be preserved as
// a standalone table.
func DropPartition(ctx context.Context, adapter jrm.Adapter, table, partitionName string) (*jrm.Result, error) {
	ddl := fmt.Sprintf("ALTER TABLE %s DROP PARTITION %s", table, partitionName)
	return exec(ctx, adapter, ddl, "DROP PARTITION")
}

// AttachPartition attaches an existing standalone table as a new
// partition of table, covering the given bound. The source table's rows
// must fall within bound.Low..bound.High (STARTING FROM/ENDING AT, both
// inclusive by Db2's default). This function issues only the ATTACH; it
// runs no SET INTEGRITY afterwards.
func AttachPartition(ctx context.Context, adapter jrm.Adapter, table, sourceTable, partitionName string, bound Bound) (*jrm.Result, error) {
	ddl := fmt.Sprintf(
		"ALTER TABLE %s ATTACH PARTITION %s STARTING FROM (%s) ENDING AT (%s) FROM %s",
		table, partitionName, bound.Low, bound.High, sourceTable,
	)
	return exec(ctx, adapter, ddl, "ATTACH PARTITION")
}

// DetachPartition detaches partitionName from table into a new standalone
// table, targetTable, preserving the partition's rows for archival or
// further processing instead of dropping them.
func DetachPartition(ctx context.Context, adapter jrm.Adapter, table, partitionName, targetTable string) (*jrm.Result, error) {
	ddl := fmt.Sprintf("ALTER TABLE %s DETACH PARTITION %s INTO %s", table, partitionName, targetTable)
	return exec(ctx, adapter, ddl, "DETACH PARTITION")
}

func exec(ctx context.Context, adapter jrm.Adapter, ddl, op string) (*jrm.Result, error) {
	res, err := adapter.Exec(ctx, ddl, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: partition: %s: %v", jrm.ErrSyntaxOrDialect, op, err)
	}
	n, _ := res.RowsAffected()
	return &jrm.Result{Count: n}, nil
}
