// Package pool implements the two connection-pool backends from
// spec.md §4.6: an eager-pool backend (pre-allocates a minimum, recycles
// idle connections after idleTTL, liveness-probes on checkout) and a
// reset-on-return backend (a soft pool that resets autocommit=on on
// return via Resource.ResetAutocommit; neither backend rolls back
// transactions itself).
//
// Grounded on longjrm/connection/pool.py's _SABackend (SQLAlchemy-style
// eager pool with pool_pre_ping) and _DBUtilsBackend (DBUtils PooledDB,
// blocking checkout, reset=True on return). This package stays free of
// any dependency on the root jrm package — it operates on a small Resource
// interface instead of jrm.Adapter — so the root package's Pool type
// (pool.go) can wire it to real adapters without an import cycle.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Resource is anything a pool backend can hand out and take back: a live
// adapter connection plus enough surface to probe liveness and reset
// state on return.
type Resource interface {
	Ping(ctx context.Context) error
	ResetAutocommit(ctx context.Context) error
	Close() error
}

// Factory constructs a new Resource (opens a fresh connection).
type Factory func(ctx context.Context) (Resource, error)

// ErrExhausted is returned when a checkout times out.
var ErrExhausted = fmt.Errorf("pool: checkout timed out")

// EagerBackend pre-allocates MinSize resources at construction and grows
// up to MaxSize on demand; checkout probes liveness and recreates a dead
// resource transparently.
type EagerBackend struct {
	factory     Factory
	maxSize     int
	idleTTL     time.Duration
	mu          sync.Mutex
	idle        []*entry
	outstanding int
	notify      chan struct{}
}

type entry struct {
	res      Resource
	lastUsed time.Time
}

// NewEagerBackend builds the eager-pool backend, pre-allocating minSize
// connections via factory.
func NewEagerBackend(ctx context.Context, factory Factory, minSize, maxSize int, idleTTL time.Duration) (*EagerBackend, error) {
	if maxSize <= 0 {
		maxSize = 10
	}
	b := &EagerBackend{factory: factory, maxSize: maxSize, idleTTL: idleTTL, notify: make(chan struct{})}
	for i := 0; i < minSize; i++ {
		r, err := factory(ctx)
		if err != nil {
			return nil, fmt.Errorf("pool: pre-allocating connection %d/%d: %w", i+1, minSize, err)
		}
		b.idle = append(b.idle, &entry{res: r, lastUsed: time.Now()})
	}
	return b, nil
}

// Acquire blocks until a resource is available or ctx is done / timeout
// elapses, whichever comes first.
func (b *EagerBackend) Acquire(ctx context.Context, timeout time.Duration) (Resource, error) {
	deadline := time.Now().Add(timeout)
	b.mu.Lock()
	for {
		b.evictExpiredLocked()
		if len(b.idle) > 0 {
			e := b.idle[len(b.idle)-1]
			b.idle = b.idle[:len(b.idle)-1]
			b.outstanding++
			b.mu.Unlock()
			if err := e.res.Ping(ctx); err != nil {
				// dead connection: replace transparently
				e.res.Close()
				r, ferr := b.factory(ctx)
				b.mu.Lock()
				b.outstanding--
				if ferr != nil {
					b.mu.Unlock()
					return nil, fmt.Errorf("pool: replacing dead connection: %w", ferr)
				}
				b.outstanding++
				b.mu.Unlock()
				return r, nil
			}
			return e.res, nil
		}
		if b.outstanding < b.maxSize {
			b.outstanding++
			b.mu.Unlock()
			r, err := b.factory(ctx)
			if err != nil {
				b.mu.Lock()
				b.outstanding--
				b.mu.Unlock()
				return nil, err
			}
			return r, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			b.mu.Unlock()
			return nil, ErrExhausted
		}
		waitCh := b.notify
		b.mu.Unlock()
		select {
		case <-waitCh:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(timeLeft(deadline, timeout)):
		}
		b.mu.Lock()
	}
}

func timeLeft(deadline time.Time, timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return time.Hour
	}
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	return d
}

func (b *EagerBackend) evictExpiredLocked() {
	if b.idleTTL <= 0 {
		return
	}
	now := time.Now()
	kept := b.idle[:0]
	for _, e := range b.idle {
		if now.Sub(e.lastUsed) > b.idleTTL {
			e.res.Close()
			continue
		}
		kept = append(kept, e)
	}
	b.idle = kept
}

// Release returns a resource to the pool after resetting its autocommit
// state (the facade owns autocommit discipline per-call; EagerBackend
// still resets here as a defensive backstop matching ResetBackend's
// contract).
func (b *EagerBackend) Release(ctx context.Context, r Resource) {
	_ = r.ResetAutocommit(ctx)
	b.mu.Lock()
	b.idle = append(b.idle, &entry{res: r, lastUsed: time.Now()})
	b.outstanding--
	old := b.notify
	b.notify = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

func (b *EagerBackend) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.idle {
		e.res.Close()
	}
	b.idle = nil
}

// ResetBackend is the soft pool: a bounded channel of resources, created
// lazily up to maxSize, reset to autocommit=on via
// Resource.ResetAutocommit on every return.
type ResetBackend struct {
	factory Factory
	sem     chan struct{}
	mu      sync.Mutex
	free    []Resource
	maxSize int
}

// NewResetBackend builds the reset-on-return backend.
func NewResetBackend(factory Factory, maxSize int) *ResetBackend {
	if maxSize <= 0 {
		maxSize = 10
	}
	return &ResetBackend{factory: factory, sem: make(chan struct{}, maxSize), maxSize: maxSize}
}

// Acquire blocks on the semaphore until a slot is free or timeout elapses.
func (b *ResetBackend) Acquire(ctx context.Context, timeout time.Duration) (Resource, error) {
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeoutCh:
		return nil, ErrExhausted
	}

	b.mu.Lock()
	if len(b.free) > 0 {
		r := b.free[len(b.free)-1]
		b.free = b.free[:len(b.free)-1]
		b.mu.Unlock()
		return r, nil
	}
	b.mu.Unlock()

	r, err := b.factory(ctx)
	if err != nil {
		<-b.sem
		return nil, err
	}
	return r, nil
}

// Release resets the resource (Resource.ResetAutocommit; no rollback is
// issued) and returns it to the free list.
func (b *ResetBackend) Release(ctx context.Context, r Resource) {
	_ = r.ResetAutocommit(ctx)
	b.mu.Lock()
	b.free = append(b.free, r)
	b.mu.Unlock()
	<-b.sem
}

func (b *ResetBackend) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.free {
		r.Close()
	}
	b.free = nil
}
