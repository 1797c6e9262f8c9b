package jrm

import (
	"errors"
	"fmt"

	"github.com/jrm-go/jrm/internal/condition"
)

// Error kinds from the abstract taxonomy. Dialect and driver packages wrap
// these with fmt.Errorf("...: %w", ...) so callers can still errors.Is them.
var (
	// ErrConfiguration covers unknown backend tags, missing required
	// descriptor fields, or an unresolvable database key.
	ErrConfiguration = errors.New("jrm: configuration error")

	// ErrConnection covers driver-reported connect failures, timeouts, or
	// a connection lost mid-operation.
	ErrConnection = errors.New("jrm: connection error")

	// ErrMalformedBinding covers placeholder/value-vector mismatches.
	ErrMalformedBinding = errors.New("jrm: malformed binding")

	// ErrSyntaxOrDialect wraps a driver-reported SQL error.
	ErrSyntaxOrDialect = errors.New("jrm: syntax or dialect error")

	// ErrDeltaRequired is returned when a Spark mutation targets a table
	// that is not a Delta table.
	ErrDeltaRequired = errors.New("jrm: target is not a Delta table")

	// ErrStreamAborted is returned when a stream operation aborts because
	// an upstream row carried a non-nil error; Result.Count records the
	// row number at which it aborted, not the number of rows applied.
	ErrStreamAborted = errors.New("jrm: stream aborted on upstream row error")

	// ErrPoolExhausted is returned when a pool checkout times out.
	ErrPoolExhausted = errors.New("jrm: pool checkout timed out")

	// ErrTransactionDone is returned when commit/rollback is called twice,
	// or an operation is attempted on a transaction that already exited.
	ErrTransactionDone = errors.New("jrm: transaction already committed or rolled back")

	// ErrAmbiguousCondition is returned by the condition compiler when a
	// condition node carries some of the comprehensive keys
	// (operator/value/placeholder) but is not made up of exactly those
	// three: one or two of them, or all three mixed with other operator
	// keys (see Open Question #1).
	ErrAmbiguousCondition = errors.New("jrm: ambiguous condition node")
)

// wrapConditionErr classifies an internal/condition compile error for the
// façade's callers: condition.ErrAmbiguous becomes the more specific
// ErrAmbiguousCondition, everything else falls back to ErrMalformedBinding.
// internal/condition keeps its own local sentinel rather than importing
// this package (it sits underneath the root package; importing back would
// cycle), so this is the one seam that re-attaches the public sentinel.
func wrapConditionErr(err error) error {
	if errors.Is(err, condition.ErrAmbiguous) {
		return fmt.Errorf("%w: %v", ErrAmbiguousCondition, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformedBinding, err)
}
