package dialect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertBuilder_UsesDialectPlaceholders(t *testing.T) {
	cases := []struct {
		name string
		d    Descriptor
		want string
	}{
		{"postgres", Postgres(), "VALUES ($1, $2)"},
		{"mysql", MySQL(), "VALUES (?, ?)"},
		{"sqlite", SQLite(), "VALUES (?, ?)"},
		{"oracle", Oracle(), "VALUES (:1, :2)"},
		{"db2", Db2(), "VALUES (?, ?)"},
		{"sqlserver", SQLServer(), "VALUES (@p1, @p2)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.d.UpsertBuilder("t", []string{"id", "name"}, []string{"id"}, nil, false, c.d.PlaceholderFunc)
			require.Contains(t, got, c.want)
		})
	}
}

func TestMergeIntoUpsert_OracleNamedPlaceholders(t *testing.T) {
	d := Oracle()
	sql := d.UpsertBuilder("accounts", []string{"id", "balance"}, []string{"id"}, nil, false, d.PlaceholderFunc)
	require.Contains(t, sql, "VALUES (:1, :2)")
	require.NotContains(t, sql, "?")
}

func TestMergeIntoUpsert_SQLServerNamedPlaceholders(t *testing.T) {
	d := SQLServer()
	sql := d.UpsertBuilder("accounts", []string{"id", "balance"}, []string{"id"}, nil, false, d.PlaceholderFunc)
	require.Contains(t, sql, "VALUES (@p1, @p2)")
	require.NotContains(t, sql, "?")
}
