package jrm

import "github.com/jrm-go/jrm/internal/dialect"

// dialectWrapper adapts an internal/dialect.Descriptor (plain data, no
// dependency on this package) to the public Dialect interface. Every
// drivers/db/* package constructs one of these instead of hand-rolling
// the interface, so the per-backend descriptor logic lives in one place
// (internal/dialect) while still satisfying Dialect for the pool/CRUD/
// streaming code that depends on it.
type dialectWrapper struct {
	backend    BackendType
	descriptor dialect.Descriptor
	paramsOK   *bool // overrides descriptor.SupportsParamQueries when set; used by the Spark adapter after probing engine version
}

// NewDialect wraps a descriptor for the given backend tag.
func NewDialect(backend BackendType, d dialect.Descriptor) Dialect {
	return &dialectWrapper{backend: backend, descriptor: d}
}

func (w *dialectWrapper) Name() BackendType { return w.backend }

func (w *dialectWrapper) Quote(identifier string) string { return w.descriptor.QuoteFunc(identifier) }

func (w *dialectWrapper) Placeholder(n int) string { return w.descriptor.PlaceholderFunc(n) }

func (w *dialectWrapper) PlaceholderStyle() PlaceholderStyle {
	switch w.descriptor.Style {
	case dialect.StyleDollarN:
		return PlaceholderDollarN
	case dialect.StyleNamedColon:
		return PlaceholderNamedColon
	case dialect.StyleNamedPercent:
		return PlaceholderNamedPercent
	default:
		return PlaceholderQuestion
	}
}

func (w *dialectWrapper) SupportsReturning() bool { return w.descriptor.SupportsReturning }

func (w *dialectWrapper) AutocommitDefault() bool { return w.descriptor.AutocommitDefault }

func (w *dialectWrapper) BuildUpsert(table string, dataCols, keyCols, updateCols []string, noUpdate bool) string {
	return w.descriptor.UpsertBuilder(table, dataCols, keyCols, updateCols, noUpdate, w.descriptor.PlaceholderFunc)
}

func (w *dialectWrapper) SupportsParameterizedQueries() bool {
	if w.paramsOK != nil {
		return *w.paramsOK
	}
	return w.descriptor.SupportsParamQueries
}

// SetParameterizedQueriesSupport lets the Spark adapter cache a
// once-per-session engine-version probe on the descriptor instance, per
// spec.md §9's design note ("Spark parameterized-query auto-detect").
func SetParameterizedQueriesSupport(d Dialect, supported bool) {
	if w, ok := d.(*dialectWrapper); ok {
		w.paramsOK = &supported
	}
}

func (w *dialectWrapper) CursorKind() CursorKind {
	if w.descriptor.CursorKind == dialect.CursorTuple {
		return CursorTuple
	}
	return CursorDict
}
