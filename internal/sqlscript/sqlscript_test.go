package sqlscript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_Basic(t *testing.T) {
	got := Split("INSERT INTO a VALUES (1); INSERT INTO b VALUES (2);")
	require.Equal(t, []string{"INSERT INTO a VALUES (1)", "INSERT INTO b VALUES (2)"}, got)
}

func TestSplit_NoTrailingSemicolon(t *testing.T) {
	got := Split("SELECT 1")
	require.Equal(t, []string{"SELECT 1"}, got)
}

func TestSplit_IgnoresSemicolonInsideStringLiteral(t *testing.T) {
	got := Split("INSERT INTO a VALUES ('hi; there'); SELECT 1;")
	require.Equal(t, []string{"INSERT INTO a VALUES ('hi; there')", "SELECT 1"}, got)
}

func TestSplit_IgnoresSemicolonInsideLineComment(t *testing.T) {
	got := Split("SELECT 1; -- a comment; with a semicolon\nSELECT 2;")
	require.Equal(t, []string{"SELECT 1", "-- a comment; with a semicolon\nSELECT 2"}, got)
}

func TestSplit_IgnoresSemicolonInsideBlockComment(t *testing.T) {
	got := Split("SELECT 1; /* comment; with ; semicolons */ SELECT 2;")
	require.Equal(t, []string{"SELECT 1", "/* comment; with ; semicolons */ SELECT 2"}, got)
}

func TestSplit_EmptyStatementsDropped(t *testing.T) {
	got := Split(";;  ;\n;SELECT 1;")
	require.Equal(t, []string{"SELECT 1"}, got)
}

func TestSplit_EmptyScript(t *testing.T) {
	require.Empty(t, Split(""))
	require.Empty(t, Split("   \n  "))
}
