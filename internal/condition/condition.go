// Package condition implements the condition compiler from spec.md §4.3:
// translating a structured condition tree into a WHERE fragment plus a
// bound-values vector.
//
// Grounded directly on longjrm/utils/sql.py's simple_condition_parser,
// regular_condition_parser, comprehensive_condition_parser,
// operator_condition_parser ($and/$or/$not/$nin) and where_parser — the
// Go functions below map one-to-one onto those Python functions, with the
// Open Question #1 ambiguity made an explicit rejection instead of a
// silent fallback (see DESIGN.md).
package condition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jrm-go/jrm/internal/valuefmt"
)

// PlaceholderFunc renders the Nth (1-based, counted across the whole
// compiled WHERE clause) bind placeholder in the target dialect's style.
type PlaceholderFunc func(n int) string

var ErrAmbiguous = fmt.Errorf("condition: ambiguous condition node")
var ErrInvalid = fmt.Errorf("condition: invalid condition node")

// Compile translates a condition tree into a WHERE fragment (without the
// leading "WHERE" keyword) and its bound-values vector, starting the
// placeholder count at startIndex+1. It returns the last placeholder index
// it used (startIndex when nothing was bound), which callers (e.g. UPDATE
// ... SET ... WHERE ...) pass as the next fragment's startIndex to continue
// numbering across multiple compiled fragments sharing one sequence.
func Compile(cond map[string]any, startIndex int, ph PlaceholderFunc) (sqlFragment string, values []any, nextIndex int, err error) {
	if len(cond) == 0 {
		return "", nil, startIndex, nil
	}

	// Deterministic column order: Go map iteration is randomized, and a
	// stable compile order matters for reproducible SQL/placeholder
	// numbering in tests.
	columns := make([]string, 0, len(cond))
	for c := range cond {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	var conjuncts []string
	idx := startIndex
	for _, col := range columns {
		val := cond[col]
		var arrCond []string
		var arrValues []any
		var perr error

		if strings.HasPrefix(col, "$") {
			arrCond, arrValues, idx, perr = parseLogicalOperator(col, val, idx, ph)
		} else if nested, ok := val.(map[string]any); ok {
			arrCond, arrValues, idx, perr = parseMapCondition(col, nested, idx, ph)
		} else {
			arrCond, arrValues, idx = parseSimple(col, val, idx, ph)
		}
		if perr != nil {
			return "", nil, startIndex, perr
		}
		conjuncts = append(conjuncts, arrCond...)
		values = append(values, arrValues...)
	}

	return strings.Join(conjuncts, " AND "), values, idx, nil
}

// CompileWhere is Compile plus the leading " WHERE " keyword, matching
// longjrm's where_parser return convention (empty string when the
// condition tree is empty/nil).
func CompileWhere(cond map[string]any, ph PlaceholderFunc) (string, []any, error) {
	frag, values, _, err := Compile(cond, 0, ph)
	if err != nil {
		return "", nil, err
	}
	if frag == "" {
		return "", nil, nil
	}
	return " WHERE " + frag, values, nil
}

func parseSimple(col string, value any, idx int, ph PlaceholderFunc) ([]string, []any, int) {
	f := valuefmt.Format(value)
	if f.Inline {
		return []string{fmt.Sprintf("%s = %s", col, f.SQL)}, nil, idx
	}
	if f.Value == nil {
		return []string{fmt.Sprintf("%s IS NULL", col)}, nil, idx
	}
	idx++
	return []string{fmt.Sprintf("%s = %s", col, ph(idx))}, []any{f.Value}, idx
}

// parseMapCondition routes a {column: {...}} node to the comprehensive
// parser (exactly the three keys operator/value/placeholder), the regular
// parser (any other operator map), or rejects it as ambiguous when it has
// some but not all of the comprehensive keys, or all three alongside other
// keys — see DESIGN.md Open Question #1.
func parseMapCondition(col string, m map[string]any, idx int, ph PlaceholderFunc) ([]string, []any, int, error) {
	_, hasOp := m["operator"]
	_, hasVal := m["value"]
	_, hasPh := m["placeholder"]
	comprehensiveKeyCount := boolToInt(hasOp) + boolToInt(hasVal) + boolToInt(hasPh)

	if comprehensiveKeyCount == 3 && len(m) == 3 {
		c, v, next := parseComprehensive(col, m, idx, ph)
		return c, v, next, nil
	}
	if comprehensiveKeyCount > 0 && comprehensiveKeyCount < 3 {
		return nil, nil, idx, fmt.Errorf("%w: column %q mixes comprehensive keys (operator/value/placeholder) incompletely", ErrAmbiguous, col)
	}
	if comprehensiveKeyCount == 3 {
		return nil, nil, idx, fmt.Errorf("%w: column %q mixes comprehensive keys (operator/value/placeholder) with other keys", ErrAmbiguous, col)
	}
	return parseRegular(col, m, idx, ph)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseComprehensive(col string, m map[string]any, idx int, ph PlaceholderFunc) ([]string, []any, int) {
	operator, _ := m["operator"].(string)
	value := m["value"]
	bind := true
	if phFlag, ok := m["placeholder"].(string); ok && strings.EqualFold(phFlag, "N") {
		bind = false
	}

	f := valuefmt.Format(value)
	if f.Inline {
		return []string{fmt.Sprintf("%s %s %s", col, operator, f.SQL)}, nil, idx
	}
	if !bind {
		return []string{fmt.Sprintf("%s %s %s", col, operator, valuefmt.FormatInline(f.Value))}, nil, idx
	}
	idx++
	return []string{fmt.Sprintf("%s %s %s", col, operator, ph(idx))}, []any{f.Value}, idx
}

func parseRegular(col string, ops map[string]any, idx int, ph PlaceholderFunc) ([]string, []any, int, error) {
	// Deterministic operator order for reproducible SQL.
	operators := make([]string, 0, len(ops))
	for op := range ops {
		operators = append(operators, op)
	}
	sort.Strings(operators)

	var conjuncts []string
	var values []any
	for _, op := range operators {
		value := ops[op]
		upperOp := strings.ToUpper(op)

		if list, ok := value.([]any); ok && (upperOp == "IN" || upperOp == "NOT IN") {
			if len(list) == 0 {
				// col IN (empty set) is always false; col NOT IN (empty
				// set) is always true.
				if upperOp == "IN" {
					conjuncts = append(conjuncts, "1=0")
				} else {
					conjuncts = append(conjuncts, "1=1")
				}
				continue
			}
			placeholders := make([]string, len(list))
			for i, item := range list {
				idx++
				placeholders[i] = ph(idx)
				values = append(values, valuefmt.Format(item).Value)
			}
			conjuncts = append(conjuncts, fmt.Sprintf("%s %s (%s)", col, op, strings.Join(placeholders, ", ")))
			continue
		}

		f := valuefmt.Format(value)
		if f.Inline {
			conjuncts = append(conjuncts, fmt.Sprintf("%s %s %s", col, op, f.SQL))
			continue
		}
		idx++
		conjuncts = append(conjuncts, fmt.Sprintf("%s %s %s", col, op, ph(idx)))
		values = append(values, f.Value)
	}
	return conjuncts, values, idx, nil
}

func parseLogicalOperator(op string, operand any, idx int, ph PlaceholderFunc) ([]string, []any, int, error) {
	switch strings.ToUpper(op) {
	case "$AND", "$OR":
		list, ok := operand.([]map[string]any)
		if !ok {
			list, ok = asMapSlice(operand)
		}
		if !ok {
			return nil, nil, idx, fmt.Errorf("%w: %s expects a list of conditions", ErrInvalid, op)
		}
		var sub []string
		var values []any
		for _, subCond := range list {
			frag, v, next, err := Compile(subCond, idx, ph)
			if err != nil {
				return nil, nil, idx, err
			}
			idx = next
			if frag != "" {
				sub = append(sub, frag)
			}
			values = append(values, v...)
		}
		if len(sub) == 0 {
			return nil, values, idx, nil
		}
		joiner := " AND "
		if strings.EqualFold(op, "$or") {
			joiner = " OR "
		}
		return []string{"(" + strings.Join(sub, joiner) + ")"}, values, idx, nil

	case "$NOT":
		m, ok := operand.(map[string]any)
		if !ok {
			return nil, nil, idx, fmt.Errorf("%w: $not expects a condition map", ErrInvalid)
		}
		frag, values, next, err := Compile(m, idx, ph)
		if err != nil {
			return nil, nil, idx, err
		}
		idx = next
		if frag == "" {
			return nil, values, idx, nil
		}
		return []string{"NOT (" + frag + ")"}, values, idx, nil

	case "$NIN":
		m, ok := operand.(map[string]any)
		if !ok {
			return nil, nil, idx, fmt.Errorf("%w: $nin expects {column: [values]}", ErrInvalid)
		}
		cols := make([]string, 0, len(m))
		for c := range m {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		var conjuncts []string
		var values []any
		for _, col := range cols {
			list, ok := m[col].([]any)
			if !ok {
				return nil, nil, idx, fmt.Errorf("%w: $nin values for %q must be a list", ErrInvalid, col)
			}
			if len(list) == 0 {
				conjuncts = append(conjuncts, "1=1")
				continue
			}
			placeholders := make([]string, len(list))
			for i, item := range list {
				idx++
				placeholders[i] = ph(idx)
				values = append(values, valuefmt.Format(item).Value)
			}
			conjuncts = append(conjuncts, fmt.Sprintf("%s NOT IN (%s)", col, strings.Join(placeholders, ", ")))
		}
		return conjuncts, values, idx, nil

	default:
		return nil, nil, idx, fmt.Errorf("%w: unknown logical operator %q", ErrInvalid, op)
	}
}

func asMapSlice(v any) ([]map[string]any, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}
