package jrm

import "time"

// Condition is a condition tree: a mapping from column name to one of
// three node shapes (simple scalar, regular operator map, or
// comprehensive operator/value/placeholder map), or a logical-operator
// key ($and/$or/$not/$nin) mapping to a nested structure. See
// internal/condition for the compiler that consumes this.
type Condition map[string]any

// Comprehensive builds a comprehensive condition node:
// {operator, value, placeholder}. placeholder controls bind-vs-inline:
// true binds the value, false inlines it verbatim (after minimal
// escaping in string contexts).
func Comprehensive(operator string, value any, bind bool) map[string]any {
	ph := "Y"
	if !bind {
		ph = "N"
	}
	return map[string]any{"operator": operator, "value": value, "placeholder": ph}
}

// Options is the options envelope accepted by select; the streaming
// operations take no Options.
type Options struct {
	// Limit is a pointer so that "absent" (use the configured fetch cap)
	// and "explicit zero" (no LIMIT clause, unbounded) are distinguishable.
	// See DESIGN.md Open Question #2.
	Limit   *int
	OrderBy []string
}

// IntLimit is a convenience constructor for Options.Limit.
func IntLimit(n int) *int { return &n }

// IntCommit is a convenience constructor for the stream operations'
// commitEvery parameter: nil means DefaultCommitEvery, &0 means autocommit
// (no explicit transaction at all), &N batches a commit every N rows.
func IntCommit(n int) *int { return &n }

// Result is the standardized envelope returned by every façade operation.
type Result struct {
	Status  int       `json:"status"`
	Message string    `json:"message"`
	Data    []*Record `json:"data"`
	Columns []string  `json:"columns"`
	Count   int64     `json:"count"`
}

func okResult(data []*Record, columns []string, count int64) *Result {
	return &Result{Status: 0, Message: "", Data: data, Columns: columns, Count: count}
}

func errResult(err error) *Result {
	return &Result{Status: -1, Message: err.Error()}
}

// BackendType is the fixed set of backend tags spec.md §6 names, plus the
// generic fallback.
type BackendType string

const (
	BackendPostgres  BackendType = "postgres"
	BackendMySQL     BackendType = "mysql"
	BackendSQLite    BackendType = "sqlite"
	BackendOracle    BackendType = "oracle"
	BackendDb2       BackendType = "db2"
	BackendSQLServer BackendType = "sqlserver"
	BackendSpark     BackendType = "spark"
	BackendGeneric   BackendType = "generic"
)

// normalizeBackend maps the wire-format synonyms (postgresql, mariadb)
// onto the canonical backend tags.
func normalizeBackend(s string) BackendType {
	switch s {
	case "postgres", "postgresql":
		return BackendPostgres
	case "mysql", "mariadb":
		return BackendMySQL
	case "sqlite":
		return BackendSQLite
	case "oracle":
		return BackendOracle
	case "db2":
		return BackendDb2
	case "sqlserver":
		return BackendSQLServer
	case "spark":
		return BackendSpark
	default:
		return BackendGeneric
	}
}

// ConnDescriptor is the connection descriptor from spec.md §3/§6:
// backend type tag, host/port/user/password/database, optional full DSN,
// and a free-form options mapping. Invariant: either DSN or the
// host+database pair must be sufficient to connect.
type ConnDescriptor struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	DSN      string
	Options  map[string]string
}

// Backend returns the normalized backend tag for this descriptor.
func (c ConnDescriptor) Backend() BackendType {
	return normalizeBackend(c.Type)
}

// Validate enforces the connection descriptor invariant.
func (c ConnDescriptor) Validate() error {
	if c.DSN == "" && (c.Host == "" || c.Database == "") {
		return &ConfigError{Msg: "connection descriptor needs either a DSN or a host+database pair"}
	}
	return nil
}

// ConfigError wraps ErrConfiguration with context.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "jrm: configuration error: " + e.Msg }
func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// Client is the opaque handle passed to every operation: connection,
// backend type, database name, driver name. Acquired from the pool,
// returned on scope exit; never shared across concurrent callers.
type Client struct {
	Backend      BackendType
	DatabaseName string
	DriverName   string
	adapter      Adapter
}

// ConfigProvider is the opaque external collaborator spec.md §6 names:
// it yields JrmConfig values. The core never implements this itself; see
// drivers/config for a concrete koanf-backed implementation.
type ConfigProvider interface {
	ConnDescriptor(name string) (ConnDescriptor, error)
	DefaultName() string
	ConnectTimeout() time.Duration
	FetchLimit() int
	MinPoolSize() int
	MaxPoolSize() int
	MaxCached() int
	PoolTimeout() time.Duration
}
