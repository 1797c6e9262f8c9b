// Package dialect holds the per-backend dialect descriptors from
// spec.md §3/§4.5: identifier quoting, placeholder style, upsert
// template, autocommit default, and cursor-kind selection.
//
// Grounded on burugo-thing/interfaces.go's Dialector/SQLBuilder (quote +
// single-placeholder methods), generalized to the full descriptor shape
// spec.md names, and on longjrm/database/{postgres,mysql,sqlite,oracle,
// db2,sqlserver,spark,generic}.py's per-backend MERGE/UPSERT statements.
package dialect

import (
	"fmt"
	"strings"
)

// Style mirrors jrm.PlaceholderStyle without importing the root package
// (this package is infrastructure shared by every drivers/db/* package
// and must stay free of a jrm import to avoid a cycle; the root package's
// dialect wrapper translates Style to jrm.PlaceholderStyle at the boundary).
type Style int

const (
	StyleQuestion Style = iota
	StyleDollarN
	StyleNamedColon
	StyleNamedPercent
)

// CursorKind mirrors jrm.CursorKind; see the Style comment above for why
// this package keeps its own copy instead of importing jrm.
type CursorKind int

const (
	CursorDict CursorKind = iota
	CursorTuple
)

// Descriptor is the plain-data dialect descriptor. drivers/db/* packages
// embed one per backend and expose it through the jrm.Dialect interface.
type Descriptor struct {
	Name                 string
	QuoteFunc            func(identifier string) string
	PlaceholderFunc       func(n int) string
	Style                Style
	SupportsReturning    bool
	AutocommitDefault    bool
	SupportsParamQueries bool
	CursorKind           CursorKind
	// UpsertBuilder renders the dialect's UPSERT/MERGE statement. It
	// receives the descriptor's own PlaceholderFunc rather than closing
	// over a literal placeholder style, so a builder shared across
	// dialects with different placeholder syntax (mergeIntoUpsert, across
	// Oracle's :N, Db2/Spark's ?, and SQL Server's @pN) renders correctly
	// for whichever dialect calls it.
	UpsertBuilder func(table string, dataCols, keyCols, updateCols []string, noUpdate bool, ph func(n int) string) string
}

func quoteWith(open, close byte) func(string) string {
	return func(id string) string {
		return string(open) + id + string(close)
	}
}

func questionPlaceholder(int) string { return "?" }

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// defaultUpdateColumns computes "all data columns minus key columns",
// the default update_columns rule from spec.md §4.4.
func defaultUpdateColumns(dataCols, keyCols, updateCols []string) []string {
	if updateCols != nil {
		return updateCols
	}
	keySet := make(map[string]bool, len(keyCols))
	for _, k := range keyCols {
		keySet[k] = true
	}
	var out []string
	for _, c := range dataCols {
		if !keySet[c] {
			out = append(out, c)
		}
	}
	return out
}

// Postgres returns the PostgreSQL dialect descriptor:
// INSERT ... ON CONFLICT (keys) DO UPDATE SET ... / DO NOTHING.
func Postgres() Descriptor {
	return Descriptor{
		Name:                 "postgres",
		QuoteFunc:            quoteWith('"', '"'),
		PlaceholderFunc:      dollarPlaceholder,
		Style:                StyleDollarN,
		SupportsReturning:    true,
		AutocommitDefault:    true,
		SupportsParamQueries: true,
		CursorKind:           CursorDict,
		UpsertBuilder:        onConflictUpsert,
	}
}

func onConflictUpsert(table string, dataCols, keyCols, updateCols []string, noUpdate bool, ph func(n int) string) string {
	cols := strings.Join(dataCols, ", ")
	vals := make([]string, len(dataCols))
	for i := range dataCols {
		vals[i] = ph(i + 1)
	}
	keys := strings.Join(keyCols, ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO ", table, cols, strings.Join(vals, ", "), keys)
	if noUpdate {
		return stmt + "NOTHING"
	}
	upd := defaultUpdateColumns(dataCols, keyCols, updateCols)
	sets := make([]string, len(upd))
	for i, c := range upd {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}
	return stmt + "UPDATE SET " + strings.Join(sets, ", ")
}

// MySQL returns the MySQL/MariaDB dialect descriptor:
// INSERT ... ON DUPLICATE KEY UPDATE ...
func MySQL() Descriptor {
	return Descriptor{
		Name:                 "mysql",
		QuoteFunc:            quoteWith('`', '`'),
		PlaceholderFunc:      questionPlaceholder,
		Style:                StyleQuestion,
		SupportsReturning:    false,
		AutocommitDefault:    true,
		SupportsParamQueries: true,
		CursorKind:           CursorDict,
		UpsertBuilder:        onDuplicateKeyUpsert,
	}
}

func onDuplicateKeyUpsert(table string, dataCols, keyCols, updateCols []string, noUpdate bool, ph func(n int) string) string {
	cols := strings.Join(dataCols, ", ")
	vals := make([]string, len(dataCols))
	for i := range dataCols {
		vals[i] = ph(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE ", table, cols, strings.Join(vals, ", "))
	if noUpdate {
		// MySQL has no DO NOTHING form; updating the first key column to
		// itself is the conventional no-op upsert idiom.
		if len(keyCols) > 0 {
			return stmt + fmt.Sprintf("%s = %s", keyCols[0], keyCols[0])
		}
		return stmt + fmt.Sprintf("%s = %s", dataCols[0], dataCols[0])
	}
	upd := defaultUpdateColumns(dataCols, keyCols, updateCols)
	sets := make([]string, len(upd))
	for i, c := range upd {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
	}
	return stmt + strings.Join(sets, ", ")
}

// SQLite returns the SQLite dialect descriptor: same ON CONFLICT form as
// PostgreSQL, ? placeholders.
func SQLite() Descriptor {
	return Descriptor{
		Name:                 "sqlite",
		QuoteFunc:            quoteWith('"', '"'),
		PlaceholderFunc:      questionPlaceholder,
		Style:                StyleQuestion,
		SupportsReturning:    false,
		AutocommitDefault:    true,
		SupportsParamQueries: true,
		CursorKind:           CursorDict,
		UpsertBuilder:        sqliteUpsert,
	}
}

func sqliteUpsert(table string, dataCols, keyCols, updateCols []string, noUpdate bool, ph func(n int) string) string {
	cols := strings.Join(dataCols, ", ")
	vals := make([]string, len(dataCols))
	for i := range dataCols {
		vals[i] = ph(i + 1)
	}
	keys := strings.Join(keyCols, ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO ", table, cols, strings.Join(vals, ", "), keys)
	if noUpdate {
		return stmt + "NOTHING"
	}
	upd := defaultUpdateColumns(dataCols, keyCols, updateCols)
	sets := make([]string, len(upd))
	for i, c := range upd {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return stmt + "UPDATE SET " + strings.Join(sets, ", ")
}

// mergeIntoUpsert is the Oracle/Db2/SQL Server/Spark MERGE INTO template
// (spec.md §4.4), shared across those four dialects.
func mergeIntoUpsert(table string, dataCols, keyCols, updateCols []string, noUpdate bool, ph func(n int) string) string {
	keySet := make(map[string]bool, len(keyCols))
	for _, k := range keyCols {
		keySet[k] = true
	}
	srcCols := make([]string, len(dataCols))
	vals := make([]string, len(dataCols))
	for i, c := range dataCols {
		srcCols[i] = c
		vals[i] = ph(i + 1)
	}
	onConj := make([]string, len(keyCols))
	for i, k := range keyCols {
		onConj[i] = fmt.Sprintf("target.%s = src.%s", k, k)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "MERGE INTO %s AS target USING (VALUES (%s)) AS src (%s) ON %s",
		table, strings.Join(vals, ", "), strings.Join(srcCols, ", "), strings.Join(onConj, " AND "))

	if !noUpdate {
		upd := defaultUpdateColumns(dataCols, keyCols, updateCols)
		sets := make([]string, len(upd))
		for i, c := range upd {
			sets[i] = fmt.Sprintf("target.%s = src.%s", c, c)
		}
		fmt.Fprintf(&sb, " WHEN MATCHED THEN UPDATE SET %s", strings.Join(sets, ", "))
	}

	insCols := make([]string, len(dataCols))
	insVals := make([]string, len(dataCols))
	for i, c := range dataCols {
		insCols[i] = c
		insVals[i] = "src." + c
	}
	fmt.Fprintf(&sb, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)", strings.Join(insCols, ", "), strings.Join(insVals, ", "))
	_ = keySet
	return sb.String()
}

// Oracle returns the Oracle dialect descriptor: MERGE INTO, :1-style
// named-positional placeholders normalized from ?.
func Oracle() Descriptor {
	return Descriptor{
		Name:                 "oracle",
		QuoteFunc:            quoteWith('"', '"'),
		PlaceholderFunc:      func(n int) string { return fmt.Sprintf(":%d", n) },
		Style:                StyleDollarN,
		SupportsReturning:    false,
		AutocommitDefault:    true,
		SupportsParamQueries: true,
		CursorKind:           CursorDict,
		UpsertBuilder:        mergeIntoUpsert,
	}
}

// Db2 returns the IBM Db2 dialect descriptor: MERGE INTO, ? placeholders.
func Db2() Descriptor {
	return Descriptor{
		Name:                 "db2",
		QuoteFunc:            quoteWith('"', '"'),
		PlaceholderFunc:      questionPlaceholder,
		Style:                StyleQuestion,
		SupportsReturning:    false,
		AutocommitDefault:    true,
		SupportsParamQueries: true,
		CursorKind:           CursorDict,
		UpsertBuilder:        mergeIntoUpsert,
	}
}

// SQLServer returns the SQL Server dialect descriptor: MERGE INTO,
// @p1-style placeholders, bracket quoting.
func SQLServer() Descriptor {
	return Descriptor{
		Name:                 "sqlserver",
		QuoteFunc:            func(id string) string { return "[" + id + "]" },
		PlaceholderFunc:      func(n int) string { return fmt.Sprintf("@p%d", n) },
		Style:                StyleDollarN,
		SupportsReturning:    false,
		AutocommitDefault:    true,
		SupportsParamQueries: true,
		CursorKind:           CursorDict,
		UpsertBuilder:        mergeIntoUpsert,
	}
}

// Spark returns the Spark SQL / Delta dialect descriptor. Autocommit is
// always on (no transactions); SupportsParamQueries is set per-session by
// the spark driver package once it has probed the engine version (spec.md
// §4.10/§9 design notes), so the zero-value default here is the safe
// (inline) assumption.
func Spark() Descriptor {
	return Descriptor{
		Name:                 "spark",
		QuoteFunc:            quoteWith('`', '`'),
		PlaceholderFunc:      questionPlaceholder,
		Style:                StyleQuestion,
		SupportsReturning:    false,
		AutocommitDefault:    true,
		SupportsParamQueries: false,
		CursorKind:           CursorDict,
		UpsertBuilder:        mergeIntoUpsert,
	}
}

// Generic returns the fallback dialect for any backend tag outside the
// known set: ? placeholders, the Oracle/Db2-style MERGE template, per
// spec.md §4.5.
func Generic() Descriptor {
	return Descriptor{
		Name:                 "generic",
		QuoteFunc:            quoteWith('"', '"'),
		PlaceholderFunc:      questionPlaceholder,
		Style:                StyleQuestion,
		SupportsReturning:    false,
		AutocommitDefault:    true,
		SupportsParamQueries: true,
		CursorKind:           CursorDict,
		UpsertBuilder:        mergeIntoUpsert,
	}
}
