package core

import (
	"strings"

	"github.com/dosco/sqlbridge/core/internal/split"
)

// Keywords that start a new clause, matched case-insensitively
var clauseKeywords = map[string]bool{
	"SELECT":      true,
	"FROM":        true,
	"WHERE":       true,
	"AND":         true,
	"OR":          true,
	"HAVING":      true,
	"GROUP BY":    true,
	"ORDER BY":    true,
	"LIMIT":       true,
	"OFFSET":      true,
	"FETCH":       true,
	"UNION":       true,
	"WITH":        true,
	"VALUES":      true,
	"SET":         true,
	"UPDATE":      true,
	"INSERT INTO": true,
	"RETURNING":   true,
	"JOIN":        true,
	"LEFT JOIN":   true,
	"RIGHT JOIN":  true,
	"INNER JOIN":  true,
	"OUTER JOIN":  true,
	"CROSS JOIN":  true,
}

// prettify puts every top level clause of a statement on its own line.
// Literals, quoted identifiers and comments are copied unchanged, clauses
// inside parentheses stay where they are.
func prettify(query string) string {
	var prettified strings.Builder
	// estimated size
	prettified.Grow(len(query) + 200)

	var depth int
	var space bool

	pending := func() {
		if space && prettified.Len() != 0 && !strings.HasSuffix(prettified.String(), "\n") {
			prettified.WriteByte(' ')
		}
		space = false
	}

	clause := func(kw string) {
		if prettified.Len() != 0 && !strings.HasSuffix(prettified.String(), "\n") {
			prettified.WriteByte('\n')
		}
		prettified.WriteString(kw)
		space = true
	}

	for _, seg := range split.Segments(query) {
		if seg.Kind != split.SegCode {
			pending()
			prettified.WriteString(seg.Text)
			if seg.Kind == split.SegComment && strings.HasPrefix(seg.Text, "--") {
				prettified.WriteByte('\n')
			}
			continue
		}

		s := seg.Text
		n := len(s)

		for i := 0; i < n; {
			char := s[i]

			switch {
			case char == ' ' || char == '\t' || char == '\n' || char == '\r':
				space = true
				i++

			case isWordChar(char) && (char < '0' || char > '9'):
				j := wordEnd(s, i)
				word := strings.ToUpper(s[i:j])

				if depth == 0 && !strings.HasSuffix(prettified.String(), ".") {
					// two word keywords first
					k := j
					for k < n && s[k] == ' ' {
						k++
					}
					if l := wordEnd(s, k); k > j && l > k {
						if combined := word + " " + strings.ToUpper(s[k:l]); clauseKeywords[combined] {
							clause(combined)
							i = l
							continue
						}
					}
					if clauseKeywords[word] {
						clause(word)
						i = j
						continue
					}
				}

				pending()
				prettified.WriteString(s[i:j])
				i = j

			default:
				switch char {
				case '(':
					depth++
				case ')':
					if depth > 0 {
						depth--
					}
				}
				pending()
				prettified.WriteByte(char)
				i++
			}
		}
	}

	return strings.TrimSpace(prettified.String())
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func wordEnd(s string, i int) int {
	for i < len(s) && isWordChar(s[i]) {
		i++
	}
	return i
}
