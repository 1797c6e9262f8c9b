package jrm

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jrm-go/jrm/internal/sqlscript"
)

// ScriptOptions configures execute_script/run_script_from_file (spec.md
// §2 "Utility I/O"). Transaction wraps every statement in one transaction,
// rolled back whole on the first failing statement. ContinueOnError (only
// meaningful when Transaction is false) runs every statement regardless of
// earlier failures instead of stopping at the first one; it is ignored —
// and a script always stops at the first failure — when Transaction is
// true, since a partially-applied transaction can't be continued.
type ScriptOptions struct {
	Transaction     bool
	ContinueOnError bool
}

// ExecuteScript splits script into individual statements with
// internal/sqlscript.Split and runs each in turn. Grounded on
// tests/script_test.py: with Transaction set, the whole script commits or
// rolls back atomically and Result.Message reports "N statements
// executed"; without it, statements run autocommit and a failure partway
// through leaves earlier statements' effects in place.
func (db *Db) ExecuteScript(ctx context.Context, script string, opts ScriptOptions) *Result {
	stmts := sqlscript.Split(script)
	if len(stmts) == 0 {
		return &Result{Status: 0, Message: "0 statements executed"}
	}

	if opts.Transaction {
		return db.executeScriptInTx(ctx, stmts)
	}
	return db.executeScriptAutocommit(ctx, stmts, opts.ContinueOnError)
}

func (db *Db) executeScriptInTx(ctx context.Context, stmts []string) *Result {
	tx, err := db.client.adapter.BeginTx(ctx, nil)
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrConnection, err))
	}
	adapter := &txAdapterShim{AdapterTx: tx, dialect: db.dialect()}

	for i, stmt := range stmts {
		if _, err := execStatement(ctx, adapter, stmt); err != nil {
			tx.Rollback()
			return &Result{Status: -1, Message: fmt.Sprintf("statement %d failed, rolled back: %v", i+1, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err))
	}
	return &Result{Status: 0, Message: fmt.Sprintf("%d statements executed", len(stmts)), Count: int64(len(stmts))}
}

func (db *Db) executeScriptAutocommit(ctx context.Context, stmts []string, continueOnError bool) *Result {
	var ran, failed int
	var firstErr error
	for i, stmt := range stmts {
		if _, err := execStatement(ctx, db.client.adapter, stmt); err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("statement %d failed: %w", i+1, err)
			}
			if !continueOnError {
				return &Result{Status: -1, Message: firstErr.Error(), Count: int64(ran)}
			}
			continue
		}
		ran++
	}
	if failed > 0 {
		return &Result{Status: -1, Message: fmt.Sprintf("%d of %d statements failed, first: %v", failed, len(stmts), firstErr), Count: int64(ran)}
	}
	return &Result{Status: 0, Message: fmt.Sprintf("%d statements executed", ran), Count: int64(ran)}
}

func execStatement(ctx context.Context, adapter Adapter, stmt string) (int64, error) {
	start := time.Now()
	res, err := adapter.Exec(ctx, stmt, nil)
	log.Printf("jrm: script stmt %q took=%s", stmt, time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyntaxOrDialect, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RunScriptFromFile reads path and runs it via ExecuteScript.
func (db *Db) RunScriptFromFile(ctx context.Context, path string, opts ScriptOptions) *Result {
	contents, err := os.ReadFile(path)
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrConfiguration, err))
	}
	return db.ExecuteScript(ctx, string(contents), opts)
}
