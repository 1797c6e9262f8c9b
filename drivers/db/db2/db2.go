// Package db2 registers the Db2 connector: connection-string assembly,
// ibmdb/go_ibm_db wiring, and the Db2 dialect descriptor (? placeholders,
// MERGE INTO upsert). No teacher precedent in burugo-thing; built in
// stdadapter's shared shape, following the pack's go_ibm_db dependency.
// The Db2 partition manager (internal/partition) and ADMIN_CMD LOAD bulk
// path (internal/bulkload) both dial through this package's connector.
package db2

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ibmdb/go_ibm_db"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

func init() {
	jrm.RegisterConnector(jrm.BackendDb2, connect)
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	dsn := desc.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("HOSTNAME=%s;DATABASE=%s;PORT=%d;UID=%s;PWD=%s;", desc.Host, desc.Database, desc.Port, desc.User, desc.Password)
	}
	d := jrm.NewDialect(jrm.BackendDb2, dialect.Db2())
	return stdadapter.Open(ctx, "go_ibm_db", dsn, d, 10, 5, time.Hour)
}
