package postproc

import (
	"regexp"
	"strings"

	"github.com/dosco/sqlbridge/core/internal/split"
)

var createTableRe = regexp.MustCompile(`(?is)^CREATE\s+(TEMPORARY\s+)?TABLE\s+(IF\s+NOT\s+EXISTS\s+)?[^\s(]+\s*\(`)

// FormatCreateTable lays out a CREATE TABLE statement with one column or
// constraint per line. Any other statement is returned unchanged.
func FormatCreateTable(stmt, indent string) string {
	comments, body := split.LeadingComments(stmt)
	if hasComments(body) {
		return stmt
	}

	m := split.ProtectAll(body)
	s := m.Text

	loc := createTableRe.FindStringIndex(s)
	if loc == nil {
		return stmt
	}
	open := loc[1] - 1

	end := closingParen(s, open)
	if end == -1 {
		return stmt
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(s[:open]))
	sb.WriteString(" (\n")

	cols := splitColumns(s[open+1 : end])
	for i, c := range cols {
		sb.WriteString(indent)
		sb.WriteString(c)
		if i < len(cols)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte(')')
	if tail := strings.TrimSpace(s[end+1:]); tail != "" {
		if tail[0] != ';' {
			sb.WriteByte(' ')
		}
		sb.WriteString(tail)
	}

	out := m.Restore(sb.String())
	if comments != "" {
		out = comments + "\n" + out
	}
	return out
}

// hasComments reports whether comments are mixed into the statement body,
// a line comment cannot be moved onto a joined line
func hasComments(s string) bool {
	for _, seg := range split.Segments(s) {
		if seg.Kind == split.SegComment {
			return true
		}
	}
	return false
}

func closingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitColumns splits a column list on top level commas
func splitColumns(s string) (cols []string) {
	depth, start := 0, 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				cols = appendColumn(cols, s[start:i])
				start = i + 1
			}
		}
	}
	return appendColumn(cols, s[start:])
}

func appendColumn(cols []string, c string) []string {
	c = strings.Join(strings.Fields(c), " ")
	if c == "" {
		return cols
	}
	return append(cols, c)
}
