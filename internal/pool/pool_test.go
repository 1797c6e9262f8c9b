package pool

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeResource struct{ closed bool }

func (r *fakeResource) Ping(ctx context.Context) error          { return nil }
func (r *fakeResource) ResetAutocommit(ctx context.Context) error { return nil }
func (r *fakeResource) Close() error                             { r.closed = true; return nil }

func fakeFactory(ctx context.Context) (Resource, error) { return &fakeResource{}, nil }

func TestEagerBackend_AcquireTimeout_DoesNotLeakGoroutines(t *testing.T) {
	b, err := NewEagerBackend(context.Background(), fakeFactory, 1, 1, 0)
	require.NoError(t, err)

	// Exhaust the single slot so the next Acquire has to wait.
	r, err := b.Acquire(context.Background(), time.Second)
	require.NoError(t, err)

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		_, err := b.Acquire(context.Background(), 5*time.Millisecond)
		require.ErrorIs(t, err, ErrExhausted)
	}
	runtime.Gosched()
	time.Sleep(10 * time.Millisecond)
	after := runtime.NumGoroutine()
	require.LessOrEqual(t, after, before+1, "Acquire timeouts should not accumulate parked goroutines")

	b.Release(context.Background(), r)
}

func TestEagerBackend_Release_WakesWaiter(t *testing.T) {
	b, err := NewEagerBackend(context.Background(), fakeFactory, 1, 1, 0)
	require.NoError(t, err)

	r, err := b.Acquire(context.Background(), time.Second)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_, err := b.Acquire(context.Background(), 2*time.Second)
		require.NoError(t, err)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	b.Release(context.Background(), r)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Release")
	}
}
