// Package split breaks SQL scripts into statements and provides a small
// lexer used by the text based rewriters to keep literals and comments intact.
package split

import (
	"strings"
)

// Terminator is the default statement terminator
const Terminator = ';'

// Split breaks script into statements at every terminator that is outside of
// a quoted region, outside of a comment and at parenthesis depth zero.
// Each statement keeps its terminator. Statements that are empty after
// trimming, or consist only of the terminator, are dropped.
//
// A quote character closes the quoted region unless the character right
// before it is a backslash. Unterminated quotes or parentheses at the end of
// input do not cause an error, the remainder becomes the last statement.
func Split(script string, term byte) (parts []string) {
	var quote byte
	var inLine, inBlock bool
	var depth, start int

	emit := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || (len(s) == 1 && s[0] == term) {
			return
		}
		parts = append(parts, s)
	}

	n := len(script)
	for i := 0; i < n; i++ {
		ch := script[i]

		if inLine {
			if ch == '\n' {
				inLine = false
			}
			continue
		}
		if inBlock {
			if ch == '*' && i+1 < n && script[i+1] == '/' {
				inBlock = false
				i++
			}
			continue
		}
		if quote != 0 {
			if ch == quote && !escaped(script, i) {
				quote = 0
			}
			continue
		}

		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '-':
			if i+1 < n && script[i+1] == '-' {
				inLine = true
				i++
			}
		case '/':
			if i+1 < n && script[i+1] == '*' {
				inBlock = true
				i++
			}
		case '(':
			depth++
		case ')':
			// a stray closing paren must not disable splitting for the
			// rest of the script
			if depth > 0 {
				depth--
			}
		default:
			if ch == term && depth == 0 {
				emit(script[start : i+1])
				start = i + 1
			}
		}
	}
	emit(script[start:])
	return
}

// escaped reports whether the character at i is preceded by a backslash
func escaped(s string, i int) bool {
	return i > 0 && s[i-1] == '\\'
}

// HasCode returns false when stmt holds nothing but comments, whitespace
// and terminators.
func HasCode(stmt string) bool {
	for _, seg := range Segments(stmt) {
		switch seg.Kind {
		case SegComment:
			continue
		case SegCode:
			if strings.TrimSpace(strings.Trim(seg.Text, "; \t\r\n")) != "" {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// LeadingComments separates the comments in front of a statement from its
// body. Both parts are returned trimmed.
func LeadingComments(stmt string) (comments, body string) {
	segs := Segments(stmt)
	var cut int

	for _, seg := range segs {
		if seg.Kind == SegComment {
			cut = seg.End
			continue
		}
		if seg.Kind == SegCode {
			t := strings.TrimSpace(seg.Text)
			if t == "" {
				continue
			}
			// code segment may begin with whitespace before the body
			cut = seg.Start + strings.Index(seg.Text, t[:1])
			break
		}
		cut = seg.Start
		break
	}

	if cut <= 0 {
		return "", strings.TrimSpace(stmt)
	}
	return strings.TrimSpace(stmt[:cut]), strings.TrimSpace(stmt[cut:])
}

// TrimTerminator removes the trailing terminator(s) and surrounding whitespace
func TrimTerminator(stmt string, term byte) string {
	s := strings.TrimSpace(stmt)
	for strings.HasSuffix(s, string(term)) {
		s = strings.TrimSpace(s[:len(s)-1])
	}
	return s
}
