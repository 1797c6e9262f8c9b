package jrm

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// IsolationLevel is the set spec.md §4.7 names.
type IsolationLevel int

const (
	IsolationDefault IsolationLevel = iota
	IsolationReadUncommitted
	IsolationReadCommitted
	IsolationRepeatableRead
	IsolationSerializable
)

func (l IsolationLevel) toSQL() sql.IsolationLevel {
	switch l {
	case IsolationReadUncommitted:
		return sql.LevelReadUncommitted
	case IsolationReadCommitted:
		return sql.LevelReadCommitted
	case IsolationRepeatableRead:
		return sql.LevelRepeatableRead
	case IsolationSerializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// TxState is the transaction state machine from spec.md §4.7:
// Idle -> Active -> {Committed | RolledBack}.
type TxState int

const (
	TxIdle TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

// Tx is a transaction-scoped handle: client handle plus the open driver
// transaction, bound to a scoped acquisition block; on release the
// connection is reset to autocommit=on. Grounded on spec.md §4.7's
// state table; google/uuid stamps the scope for log correlation, matching
// johndauphine-dmt/leapstack-labs-leapsql's use of uuid for that purpose.
type Tx struct {
	id        string
	pc        *PooledClient
	adapterTx AdapterTx
	client    *Client
	state     TxState
}

func beginTx(ctx context.Context, pc *PooledClient, isolation IsolationLevel) (*Tx, error) {
	id := uuid.NewString()
	opts := &sql.TxOptions{Isolation: isolation.toSQL()}
	adapterTx, err := pc.adapter.BeginTx(ctx, opts)
	if err != nil {
		if !supportsIsolation(pc.Backend, isolation) {
			log.Printf("jrm: tx %s: isolation level unsupported on %s, proceeding at driver default", id, pc.Backend)
			adapterTx, err = pc.adapter.BeginTx(ctx, &sql.TxOptions{})
		}
		if err != nil {
			return nil, fmt.Errorf("%w: begin transaction: %v", ErrConnection, err)
		}
	}
	log.Printf("jrm: tx %s: begin (isolation=%d, backend=%s)", id, isolation, pc.Backend)

	// client within the transaction scope wraps the same adapter but
	// dispatches through adapterTx instead of the bare adapter.
	txClient := &Client{
		Backend:      pc.Backend,
		DatabaseName: pc.DatabaseName,
		DriverName:   pc.DriverName,
		adapter:      &txAdapterShim{AdapterTx: adapterTx, dialect: pc.adapter.Dialect()},
	}
	return &Tx{id: id, pc: pc, adapterTx: adapterTx, client: txClient, state: TxActive}, nil
}

// supportsIsolation reports whether a backend honors a non-default
// isolation level; sqlite logs a warning and proceeds at driver default
// per spec.md §4.7.
func supportsIsolation(backend BackendType, isolation IsolationLevel) bool {
	if isolation == IsolationDefault {
		return true
	}
	return backend != BackendSQLite
}

// Client returns the transaction-scoped client; every Db built from it
// dispatches inside the transaction.
func (t *Tx) Client() *Client { return t.client }

// Commit transitions Active -> Committed.
func (t *Tx) Commit() error {
	if t.state != TxActive {
		return ErrTransactionDone
	}
	if err := t.adapterTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrSyntaxOrDialect, err)
	}
	t.state = TxCommitted
	log.Printf("jrm: tx %s: committed", t.id)
	t.restoreAndRelease()
	return nil
}

// Rollback transitions Active -> RolledBack.
func (t *Tx) Rollback() error {
	if t.state != TxActive {
		return ErrTransactionDone
	}
	if err := t.adapterTx.Rollback(); err != nil {
		return fmt.Errorf("%w: rollback: %v", ErrSyntaxOrDialect, err)
	}
	t.state = TxRolledBack
	log.Printf("jrm: tx %s: rolled back", t.id)
	t.restoreAndRelease()
	return nil
}

// Finish is the scope-exit transition: commit if err is nil, otherwise
// rollback and propagate err. Safe to call from a deferred closure; if the
// transaction already committed or rolled back explicitly, Finish is a
// no-op.
func (t *Tx) Finish(err error) error {
	if t.state != TxActive {
		return err
	}
	if err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			log.Printf("jrm: tx %s: rollback after error failed: %v", t.id, rbErr)
		}
		return err
	}
	return t.Commit()
}

func (t *Tx) restoreAndRelease() {
	_ = t.pc.adapter.EnsureAutocommit(context.Background())
	t.pc.Close()
}

// txAdapterShim adapts an AdapterTx (Commit/Rollback surface) to the
// Adapter interface so that Db (which only knows Adapter) can run inside
// a transaction scope transparently. Commit/Rollback/BeginTx are not
// reachable through this shim — Tx itself owns the state machine.
type txAdapterShim struct {
	AdapterTx
	dialect Dialect
}

func (s *txAdapterShim) QueryRows(ctx context.Context, query string, args []any) (AdapterRows, error) {
	return s.AdapterTx.QueryRows(ctx, query, args)
}
func (s *txAdapterShim) BeginTx(ctx context.Context, opts *sql.TxOptions) (AdapterTx, error) {
	return nil, fmt.Errorf("jrm: nested transactions are not supported")
}
func (s *txAdapterShim) Dialect() Dialect                          { return s.dialect }
func (s *txAdapterShim) EnsureAutocommit(ctx context.Context) error { return nil }
func (s *txAdapterShim) Ping(ctx context.Context) error             { return nil }
func (s *txAdapterShim) DB() *sql.DB                                 { return nil }
func (s *txAdapterShim) Close() error                                { return nil }
