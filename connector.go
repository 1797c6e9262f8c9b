package jrm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConnectorFunc constructs a live Adapter from a connection descriptor,
// applying connect-timeout. Each drivers/db/* package registers one for
// its backend tag via RegisterConnector, matching spec.md §4.5's
// connector factory: backend type → {driver module, DSN builder, cursor
// factory, placeholder style, autocommit default, upsert builder}
// (the latter four live on the Dialect the connector wires in).
type ConnectorFunc func(ctx context.Context, desc ConnDescriptor) (Adapter, error)

var (
	connectorMu sync.RWMutex
	connectors  = map[BackendType]ConnectorFunc{}
)

// RegisterConnector wires a backend's connector factory. Called from
// driver packages' init().
func RegisterConnector(backend BackendType, fn ConnectorFunc) {
	connectorMu.Lock()
	defer connectorMu.Unlock()
	connectors[backend] = fn
}

// Connect dispatches to the registered connector for desc.Backend(),
// enforcing connect-timeout via ctx. Falls back to BackendGeneric if no
// specific connector is registered for the descriptor's backend tag.
func Connect(ctx context.Context, desc ConnDescriptor, connectTimeout time.Duration) (Adapter, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	backend := desc.Backend()
	connectorMu.RLock()
	fn, ok := connectors[backend]
	if !ok {
		fn, ok = connectors[BackendGeneric]
	}
	connectorMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no connector registered for backend %q (and no generic fallback registered)", ErrConfiguration, backend)
	}

	adapter, err := fn(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return adapter, nil
}
