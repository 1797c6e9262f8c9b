package jrm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jrm-go/jrm/internal/pool"
)

// PoolBackendKind selects which of the two backend implementations a Pool
// uses, matching longjrm's PoolBackend enum (SQLAlchemy vs DBUtils).
type PoolBackendKind int

const (
	// PoolEager pre-allocates a minimum pool and liveness-probes on
	// checkout; NewPool gives it no idle TTL, so idle connections are
	// kept until Dispose rather than recycled after an idle period. The
	// natural fit for OLTP backends with their own driver-level
	// connection pooling idioms (PostgreSQL, MySQL, SQL Server, Oracle,
	// Db2).
	PoolEager PoolBackendKind = iota
	// PoolResetOnReturn maintains a soft pool that resets autocommit=on
	// on return (via the adapter's EnsureAutocommit; it does not itself
	// roll back transactions); the natural fit for SQLite and the generic
	// fallback, where eager pre-allocation buys little.
	PoolResetOnReturn
)

// resourceWrap adapts a jrm.Adapter to internal/pool.Resource.
type resourceWrap struct {
	desc    ConnDescriptor
	timeout time.Duration
	adapter Adapter
}

func (r *resourceWrap) Ping(ctx context.Context) error             { return r.adapter.Ping(ctx) }
func (r *resourceWrap) ResetAutocommit(ctx context.Context) error  { return r.adapter.EnsureAutocommit(ctx) }
func (r *resourceWrap) Close() error                                { return r.adapter.Close() }

// Pool is the unified facade over the two backend adapters from
// spec.md §4.6. Grounded on longjrm/connection/pool.py's Pool class
// (Pool.from_config dispatching to _SABackend/_DBUtilsBackend behind one
// get_client()/dispose() surface).
type Pool struct {
	desc    ConnDescriptor
	cfg     ConfigProvider
	eager   *pool.EagerBackend
	reset   *pool.ResetBackend
	kind    PoolBackendKind
	timeout time.Duration
}

// NewPool constructs a Pool for the given connection descriptor, choosing
// a backend kind (callers may pass PoolEager or PoolResetOnReturn
// explicitly, or let NewPoolForBackend pick the conventional default per
// backend).
func NewPool(ctx context.Context, desc ConnDescriptor, cfg ConfigProvider, kind PoolBackendKind) (*Pool, error) {
	p := &Pool{desc: desc, cfg: cfg, kind: kind, timeout: cfg.PoolTimeout()}

	factory := func(ctx context.Context) (pool.Resource, error) {
		a, err := Connect(ctx, desc, cfg.ConnectTimeout())
		if err != nil {
			return nil, err
		}
		return &resourceWrap{desc: desc, adapter: a}, nil
	}

	switch kind {
	case PoolResetOnReturn:
		p.reset = pool.NewResetBackend(factory, cfg.MaxPoolSize())
	default:
		eager, err := pool.NewEagerBackend(ctx, factory, cfg.MinPoolSize(), cfg.MaxPoolSize(), 0)
		if err != nil {
			return nil, fmt.Errorf("jrm: constructing eager pool: %w", err)
		}
		p.eager = eager
	}
	return p, nil
}

// NewPoolForBackend picks PoolEager for every backend except sqlite and
// generic, matching the rationale in DESIGN.md's internal/pool entry.
func NewPoolForBackend(ctx context.Context, desc ConnDescriptor, cfg ConfigProvider) (*Pool, error) {
	kind := PoolEager
	switch desc.Backend() {
	case BackendSQLite, BackendGeneric:
		kind = PoolResetOnReturn
	}
	return NewPool(ctx, desc, cfg, kind)
}

// PooledClient is the scoped handle acquire() returns. Release is
// guaranteed on all exit paths via Close.
type PooledClient struct {
	*Client
	pool *Pool
	res  pool.Resource
}

// Close releases the client back to the pool. Safe to call via defer
// immediately after Acquire.
func (pc *PooledClient) Close() error {
	pc.pool.release(context.Background(), pc.res)
	return nil
}

// Acquire returns a scoped handle; release is guaranteed by calling
// Close() on the returned *PooledClient (typically via defer).
func (p *Pool) Acquire(ctx context.Context) (*PooledClient, error) {
	res, err := p.checkout(ctx)
	if err != nil {
		return nil, err
	}
	rw := res.(*resourceWrap)
	client := &Client{
		Backend:      rw.desc.Backend(),
		DatabaseName: rw.desc.Database,
		DriverName:   string(rw.desc.Backend()),
		adapter:      rw.adapter,
	}
	return &PooledClient{Client: client, pool: p, res: res}, nil
}

func (p *Pool) checkout(ctx context.Context) (pool.Resource, error) {
	var res pool.Resource
	var err error
	if p.kind == PoolResetOnReturn {
		res, err = p.reset.Acquire(ctx, p.timeout)
	} else {
		res, err = p.eager.Acquire(ctx, p.timeout)
	}
	if err != nil {
		if err == pool.ErrExhausted {
			return nil, ErrPoolExhausted
		}
		return nil, err
	}
	return res, nil
}

func (p *Pool) release(ctx context.Context, res pool.Resource) {
	if p.kind == PoolResetOnReturn {
		p.reset.Release(ctx, res)
	} else {
		p.eager.Release(ctx, res)
	}
}

// Dispose tears down every connection the pool currently holds idle.
func (p *Pool) Dispose() {
	if p.kind == PoolResetOnReturn {
		p.reset.Dispose()
	} else {
		p.eager.Dispose()
	}
}

// Transaction acquires a client and begins a transaction scope at the
// given isolation level, per spec.md §4.6/§4.7. The returned *Tx commits
// on Finish(nil) and rolls back on Finish(err); either way the
// connection's autocommit is restored before it returns to the pool.
func (p *Pool) Transaction(ctx context.Context, isolation IsolationLevel) (*Tx, error) {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := beginTx(ctx, pc, isolation)
	if err != nil {
		pc.Close()
		return nil, err
	}
	return tx, nil
}

// BatchOp is one operation descriptor in an execute_batch call:
// {method, params}, per spec.md §4.6 and SPEC_FULL.md's supplemented
// op-descriptor shape.
type BatchOp struct {
	Method string
	Params []any
}

// ExecuteBatch runs a sequence of operation descriptors atomically inside
// one transaction, per spec.md §4.6.
func (p *Pool) ExecuteBatch(ctx context.Context, ops []BatchOp, isolation IsolationLevel) (err error) {
	tx, err := p.Transaction(ctx, isolation)
	if err != nil {
		return err
	}
	defer func() {
		ferr := tx.Finish(err)
		if err == nil {
			err = ferr
		}
	}()

	db := NewDb(tx.Client(), p.cfg)
	for _, op := range ops {
		res := dispatchBatchOp(ctx, db, op)
		if res.Status != 0 {
			return fmt.Errorf("%w: batch op %q: %s", ErrSyntaxOrDialect, op.Method, res.Message)
		}
	}
	return nil
}

func dispatchBatchOp(ctx context.Context, db *Db, op BatchOp) *Result {
	switch op.Method {
	case "execute":
		sql, _ := op.Params[0].(string)
		args, _ := op.Params[1].([]any)
		return db.Execute(ctx, sql, args)
	case "query":
		sql, _ := op.Params[0].(string)
		args, _ := op.Params[1].([]any)
		return db.Query(ctx, sql, args)
	default:
		err := fmt.Errorf("jrm: unknown batch op method %q", op.Method)
		log.Printf("jrm: execute_batch: %v", err)
		return errResult(err)
	}
}
