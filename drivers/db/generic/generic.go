// Package generic registers the fallback connector for any backend tag
// jrm.Connect does not recognize: it opens desc.Options["driver"] (a
// database/sql driver name already registered by the caller's own import,
// e.g. a vendor driver not among the seven named backends) against
// desc.DSN, paired with the generic dialect descriptor. connector.go falls
// back here when no specific connector is registered for a backend tag.
package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

func init() {
	jrm.RegisterConnector(jrm.BackendGeneric, connect)
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	driverName := desc.Options["driver"]
	if driverName == "" {
		return nil, fmt.Errorf("jrm/drivers/db/generic: connection descriptor needs options[\"driver\"] naming a registered database/sql driver")
	}
	d := jrm.NewDialect(jrm.BackendGeneric, dialect.Generic())
	return stdadapter.Open(ctx, driverName, desc.DSN, d, 10, 5, time.Hour)
}
