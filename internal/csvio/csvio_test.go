package csvio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriter_HeaderAndRows(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Options{})

	require.NoError(t, w.WriteHeader([]string{"id", "name", "active"}))
	require.NoError(t, w.WriteRow([]any{int64(1), "alice", true}))
	require.NoError(t, w.WriteRow([]any{int64(2), "bob", false}))
	require.NoError(t, w.Flush())

	require.Equal(t, "id,name,active\n1,alice,true\n2,bob,false\n", buf.String())
}

func TestWriter_NullString(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Options{NullString: "\\N"})

	require.NoError(t, w.WriteHeader([]string{"id", "note"}))
	require.NoError(t, w.WriteRow([]any{int64(1), nil}))
	require.NoError(t, w.Flush())

	require.Equal(t, "id,note\n1,\\N\n", buf.String())
}

func TestWriter_CustomDelimiter(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Options{Comma: '|'})

	require.NoError(t, w.WriteHeader([]string{"a", "b"}))
	require.NoError(t, w.WriteRow([]any{1, "x"}))
	require.NoError(t, w.Flush())

	require.Equal(t, "a|b\n1|x\n", buf.String())
}

func TestStringify_Types(t *testing.T) {
	require.Equal(t, "7", stringify(7))
	require.Equal(t, "7", stringify(int64(7)))
	require.Equal(t, "3.5", stringify(3.5))
	require.Equal(t, "true", stringify(true))
	require.Equal(t, "false", stringify(false))
	require.Equal(t, "hi", stringify("hi"))
	require.Equal(t, "hi", stringify([]byte("hi")))
}
