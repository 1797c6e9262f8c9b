// Package oracle registers the Oracle connector: connect-string assembly,
// godror wiring, and the Oracle dialect descriptor (:N placeholders, MERGE
// INTO upsert). Oracle carries no teacher precedent in burugo-thing; built
// in stdadapter's shared shape, following the pack's godror dependency.
package oracle

import (
	"context"
	"fmt"
	"time"

	_ "github.com/godror/godror"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

func init() {
	jrm.RegisterConnector(jrm.BackendOracle, connect)
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	dsn := desc.DSN
	if dsn == "" {
		dsn = fmt.Sprintf(`user="%s" password="%s" connectString="%s:%d/%s"`,
			desc.User, desc.Password, desc.Host, desc.Port, desc.Database)
	}
	d := jrm.NewDialect(jrm.BackendOracle, dialect.Oracle())
	return stdadapter.Open(ctx, "godror", dsn, d, 25, 10, time.Hour)
}
