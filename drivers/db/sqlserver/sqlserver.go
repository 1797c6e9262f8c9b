// Package sqlserver registers the SQL Server connector: DSN assembly,
// microsoft/go-mssqldb wiring, and the SQL Server dialect descriptor
// (@pN placeholders, bracket-quoted identifiers, MERGE upsert). No teacher
// precedent in burugo-thing; built in stdadapter's shared shape, following
// the pack's go-mssqldb dependency.
package sqlserver

import (
	"context"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

func init() {
	jrm.RegisterConnector(jrm.BackendSQLServer, connect)
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	dsn := desc.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s", desc.User, desc.Password, desc.Host, desc.Port, desc.Database)
	}
	d := jrm.NewDialect(jrm.BackendSQLServer, dialect.SQLServer())
	return stdadapter.Open(ctx, "sqlserver", dsn, d, 25, 10, time.Hour)
}
