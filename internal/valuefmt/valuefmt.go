// Package valuefmt implements the value formatter from spec.md §4.2:
// encoding records/values for binding or inline interpolation.
//
// Grounded on longjrm/database/db.py's datalist_to_dataseq (JSON
// serialization of nested maps/lists, "|"-joining of flat scalar
// sequences, datetime formatting) and utils/sql.py's
// check_current_keyword/unescape_current_keyword backtick handling.
package valuefmt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Formatted is the sum type spec.md §9's design notes call for:
// {Bind(v), Inline(sql)}. The formatter emits SQL literals for Inline and
// placeholders for Bind.
type Formatted struct {
	Inline bool
	SQL    string // valid when Inline is true: SQL text to splice verbatim
	Value  any    // valid when Inline is false: the value to bind
}

const isoLayout = "2006-01-02T15:04:05.000000"

// Format applies the value-formatting rules to a single value scheduled
// for binding or inlining.
func Format(v any) Formatted {
	if v == nil {
		return Formatted{Value: nil}
	}

	if s, ok := v.(string); ok {
		if kw, ok := backtickKeyword(s); ok {
			return Formatted{Inline: true, SQL: kw}
		}
	}

	switch val := v.(type) {
	case map[string]any:
		return Formatted{Value: mustJSON(val)}
	case []any:
		return formatSlice(val)
	case []string:
		anySlice := make([]any, len(val))
		for i, s := range val {
			anySlice[i] = s
		}
		return formatSlice(anySlice)
	case time.Time:
		return Formatted{Value: val}
	default:
		return Formatted{Value: val}
	}
}

// FormatInline renders v as a SQL literal for direct splicing into a
// statement (used for comprehensive-condition placeholder="N"). Strings
// get single-quote doubling; timestamps are rendered ISO-8601.
func FormatInline(v any) string {
	if v == nil {
		return "NULL"
	}
	if s, ok := v.(string); ok {
		if kw, ok := backtickKeyword(s); ok {
			return kw
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	switch val := v.(type) {
	case time.Time:
		return "'" + val.UTC().Format(isoLayout) + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", val)
	case map[string]any:
		return "'" + strings.ReplaceAll(string(mustJSON(val)), "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", val), "'", "''") + "'"
	}
}

func formatSlice(vals []any) Formatted {
	if len(vals) == 0 {
		return Formatted{Value: "[]"}
	}
	if isCompound(vals[0]) {
		return Formatted{Value: mustJSON(vals)}
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = scalarToString(v)
	}
	return Formatted{Value: strings.Join(parts, "|")}
}

func isCompound(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

func scalarToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.UTC().Format(isoLayout)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Formatting failures here indicate a caller passed an
		// unmarshalable value (e.g. a channel) into a record; surfacing
		// that as the literal error text inline is preferable to a panic.
		return fmt.Sprintf("<jrm: json marshal error: %v>", err)
	}
	return string(b)
}

// backtickKeyword reports whether s is a backtick-delimited SQL keyword
// literal (spec.md §4.2/§GLOSSARY): a string of the form `TOKEN`, meaning
// TOKEN should be inlined verbatim rather than bound.
func backtickKeyword(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1], true
	}
	return "", false
}
