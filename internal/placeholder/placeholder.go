// Package placeholder normalizes SQL placeholder syntax across the four
// input styles spec.md §4.1 names (?, %s, :name, %(name)s, $name) into
// whatever style a backend's driver requires.
//
// Grounded on longjrm/database/placeholder_handler.py's regex-driven
// detection, but replaces bare regexes with a quote/comment-aware lexer
// (in the style of cyw0ng95-sqlvibe's internal/QP/tokenizer.go) so that
// placeholder-shaped text inside string literals or comments is never
// mistaken for a real placeholder.
package placeholder

import (
	"fmt"
	"strings"
)

// Style enumerates the placeholder styles a SQL text can use.
type Style int

const (
	StyleNone         Style = iota
	StylePositional          // ? or %s
	StyleNamedColon          // :name
	StyleNamedPercent        // %(name)s
	StyleNamedDollar         // $name
)

// Kind distinguishes the exact token shape within a Style (needed to know
// what literal text to strip when rewriting).
type kind int

const (
	kindQuestion kind = iota
	kindPercentS
	kindColonName
	kindPercentName
	kindDollarName
)

type token struct {
	start, end int // byte offsets into the original SQL text, [start,end)
	kind       kind
	name       string // populated for named kinds
}

func (k kind) style() Style {
	switch k {
	case kindQuestion, kindPercentS:
		return StylePositional
	case kindColonName:
		return StyleNamedColon
	case kindPercentName:
		return StyleNamedPercent
	case kindDollarName:
		return StyleNamedDollar
	}
	return StyleNone
}

// lex scans sql and returns every placeholder token found outside of
// string literals and comments. It tracks single-quote, double-quote,
// line-comment (--) and block-comment (/* */) state, per spec.md §4.1.
func lex(sql string) []token {
	var toks []token
	n := len(sql)
	i := 0
	for i < n {
		c := sql[i]
		switch {
		case c == '\'':
			i = skipQuoted(sql, i, '\'')
			continue
		case c == '"':
			i = skipQuoted(sql, i, '"')
			continue
		case c == '-' && i+1 < n && sql[i+1] == '-':
			i = skipLineComment(sql, i)
			continue
		case c == '/' && i+1 < n && sql[i+1] == '*':
			i = skipBlockComment(sql, i)
			continue
		case c == '?':
			toks = append(toks, token{start: i, end: i + 1, kind: kindQuestion})
			i++
			continue
		case c == '%' && i+1 < n && sql[i+1] == 's':
			toks = append(toks, token{start: i, end: i + 2, kind: kindPercentS})
			i += 2
			continue
		case c == '%' && i+1 < n && sql[i+1] == '(':
			if end, name, ok := scanPercentName(sql, i); ok {
				toks = append(toks, token{start: i, end: end, kind: kindPercentName, name: name})
				i = end
				continue
			}
			i++
			continue
		case c == ':':
			// avoid ::type-cast and a preceding colon (::)
			if i > 0 && sql[i-1] == ':' {
				i++
				continue
			}
			if i+1 < n && sql[i+1] == ':' {
				i += 2
				continue
			}
			if end, name, ok := scanWordName(sql, i+1); ok {
				toks = append(toks, token{start: i, end: end, kind: kindColonName, name: name})
				i = end
				continue
			}
			i++
			continue
		case c == '$':
			if end, name, ok := scanWordName(sql, i+1); ok {
				// a run of digits after $ is $1-style positional, which
				// jrm treats as already-native dollar-positional and
				// leaves alone (not one of the four named input styles).
				if isAllDigits(name) {
					i = end
					continue
				}
				toks = append(toks, token{start: i, end: end, kind: kindDollarName, name: name})
				i = end
				continue
			}
			i++
			continue
		default:
			i++
		}
	}
	return toks
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SkipQuoted, SkipLineComment and SkipBlockComment expose this package's
// quote/comment-aware scanning to internal/sqlscript, which needs the same
// string/comment state tracking to split a script on statement-terminating
// semicolons without being fooled by a semicolon inside a literal or a
// comment.
func SkipQuoted(sql string, i int, quote byte) int { return skipQuoted(sql, i, quote) }
func SkipLineComment(sql string, i int) int         { return skipLineComment(sql, i) }
func SkipBlockComment(sql string, i int) int        { return skipBlockComment(sql, i) }

func skipQuoted(sql string, i int, quote byte) int {
	n := len(sql)
	i++ // skip opening quote
	for i < n {
		if sql[i] == quote {
			if i+1 < n && sql[i+1] == quote {
				i += 2 // doubled-quote escape, still inside the string
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func skipLineComment(sql string, i int) int {
	n := len(sql)
	for i < n && sql[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(sql string, i int) int {
	n := len(sql)
	i += 2
	for i+1 < n {
		if sql[i] == '*' && sql[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return n
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func scanWordName(sql string, start int) (end int, name string, ok bool) {
	n := len(sql)
	i := start
	for i < n && isWordByte(sql[i]) {
		i++
	}
	if i == start {
		return 0, "", false
	}
	return i, sql[start:i], true
}

// scanPercentName scans "%(name)s" starting at the '%' and returns the
// end offset (exclusive) and the captured name.
func scanPercentName(sql string, start int) (end int, name string, ok bool) {
	n := len(sql)
	i := start + 2 // past "%("
	nameStart := i
	for i < n && sql[i] != ')' {
		i++
	}
	if i >= n || i == nameStart {
		return 0, "", false
	}
	name = sql[nameStart:i]
	i++ // past ')'
	if i >= n || sql[i] != 's' {
		return 0, "", false
	}
	return i + 1, name, true
}

// Detect reports which style(s) of placeholder appear in sql. Per
// spec.md §4.1, a SQL text mixing a named style with a positional style
// is rejected with MalformedBinding at Normalize time; Detect itself just
// reports what it found.
func Detect(sql string) (styles map[Style]bool, toks []token) {
	toks = lex(sql)
	styles = make(map[Style]bool)
	for _, t := range toks {
		styles[t.kind.style()] = true
	}
	return styles, toks
}

// TargetFunc renders the Nth (1-based) placeholder in a driver's native
// style, e.g. a function returning the literal "?" for positional drivers
// or "$n" for drivers that want numbered placeholders. Normalize calls it
// once per placeholder it emits.
type TargetFunc func(n int) string

// ErrMalformed reports a placeholder/value mismatch. This package has no
// dependency on the root jrm package, so it exposes its own plain sentinel;
// nothing in the root package maps it onto jrm.ErrMalformedBinding.
var ErrMalformed = fmt.Errorf("placeholder: malformed binding")

// Normalize rewrites sql so every placeholder renders via target(n) in
// left-to-right textual order, and returns the values in that same
// order. values must be []any (positional) or map[string]any (named).
//
// Per spec.md §4.1: named-to-positional conversion preserves left-to-right
// textual order of placeholders; positional-to-named conversion is not
// required (and not implemented — target is always rendered via an
// index-taking function, i.e. always effectively "positional" from the
// rewriter's point of view, even for :name-style targets the dialect
// layer renders with its own numbering).
func Normalize(sql string, values any, target TargetFunc) (string, []any, error) {
	styles, toks := Detect(sql)
	named := styles[StyleNamedColon] || styles[StyleNamedPercent] || styles[StyleNamedDollar]
	positional := styles[StylePositional]
	if named && positional {
		return "", nil, fmt.Errorf("%w: sql mixes named and positional placeholders", ErrMalformed)
	}

	if len(toks) == 0 {
		ordered, err := positionalValues(values)
		if err != nil {
			return "", nil, err
		}
		return sql, ordered, nil
	}

	var ordered []any
	if named {
		m, ok := values.(map[string]any)
		if !ok {
			return "", nil, fmt.Errorf("%w: named placeholders require a map[string]any value set", ErrMalformed)
		}
		ordered = make([]any, len(toks))
		for i, t := range toks {
			v, ok := m[t.name]
			if !ok {
				return "", nil, fmt.Errorf("%w: no value supplied for named placeholder %q", ErrMalformed, t.name)
			}
			ordered[i] = v
		}
	} else {
		var err error
		ordered, err = positionalValues(values)
		if err != nil {
			return "", nil, err
		}
		if len(ordered) != len(toks) {
			return "", nil, fmt.Errorf("%w: %d placeholders but %d values", ErrMalformed, len(toks), len(ordered))
		}
	}

	var b strings.Builder
	prev := 0
	for i, t := range toks {
		b.WriteString(sql[prev:t.start])
		b.WriteString(target(i + 1))
		prev = t.end
	}
	b.WriteString(sql[prev:])
	return b.String(), ordered, nil
}

func positionalValues(values any) ([]any, error) {
	switch v := values.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return v, nil
	case map[string]any:
		// SQL has positional placeholders but caller supplied a map:
		// order is not guaranteed to match textual placeholder order.
		out := make([]any, 0, len(v))
		for _, val := range v {
			out = append(out, val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value container type %T", ErrMalformed, values)
	}
}
