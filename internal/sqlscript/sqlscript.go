// Package sqlscript splits a multi-statement SQL script into individual
// statements for execute_script/run_script_from_file (spec.md §2 "Utility
// I/O", supplemented per SPEC_FULL.md §4 since the distilled spec names
// the feature but never specifies a component). Splitting reuses
// internal/placeholder's quote/comment-aware scanner so a semicolon inside
// a string literal or a comment is never mistaken for a statement
// terminator.
package sqlscript

import "github.com/jrm-go/jrm/internal/placeholder"

// Split breaks script into individual statements on top-level semicolons,
// skipping string literals and line/block comments. Empty statements
// (blank lines, a trailing semicolon, a comment-only line) are dropped.
func Split(script string) []string {
	var stmts []string
	n := len(script)
	i, start := 0, 0
	for i < n {
		c := script[i]
		switch {
		case c == '\'':
			i = placeholder.SkipQuoted(script, i, '\'')
			continue
		case c == '"':
			i = placeholder.SkipQuoted(script, i, '"')
			continue
		case c == '-' && i+1 < n && script[i+1] == '-':
			i = placeholder.SkipLineComment(script, i)
			continue
		case c == '/' && i+1 < n && script[i+1] == '*':
			i = placeholder.SkipBlockComment(script, i)
			continue
		case c == ';':
			if s := trimStatement(script[start:i]); s != "" {
				stmts = append(stmts, s)
			}
			i++
			start = i
			continue
		default:
			i++
		}
	}
	if s := trimStatement(script[start:]); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// trimStatement strips leading/trailing whitespace; a statement made up
// entirely of whitespace and comments collapses to "".
func trimStatement(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	s = s[i:j]
	for k := 0; k < len(s); {
		switch {
		case isSpace(s[k]):
			k++
		case s[k] == '-' && k+1 < len(s) && s[k+1] == '-':
			k = placeholder.SkipLineComment(s, k)
		case s[k] == '/' && k+1 < len(s) && s[k+1] == '*':
			k = placeholder.SkipBlockComment(s, k)
		default:
			return s
		}
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
