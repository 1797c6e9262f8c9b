// Package mysql registers the MySQL/MariaDB connector: DSN assembly,
// go-sql-driver/mysql wiring, and the MySQL dialect descriptor (backtick
// identifiers, ? placeholders, ON DUPLICATE KEY UPDATE upsert). Grounded on
// the teacher's drivers/db/mysql/mysql.go (MySQLAdapter), generalized onto
// internal/stdadapter + internal/sqlscan.
package mysql

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/internal/dialect"
	"github.com/jrm-go/jrm/internal/stdadapter"
)

func init() {
	jrm.RegisterConnector(jrm.BackendMySQL, connect)
}

func connect(ctx context.Context, desc jrm.ConnDescriptor) (jrm.Adapter, error) {
	dsn := desc.DSN
	if dsn == "" {
		params := desc.Options["params"]
		if params == "" {
			params = "parseTime=true"
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", desc.User, desc.Password, desc.Host, desc.Port, desc.Database, params)
	}
	d := jrm.NewDialect(jrm.BackendMySQL, dialect.MySQL())
	return stdadapter.Open(ctx, "mysql", dsn, d, 25, 10, time.Hour)
}
