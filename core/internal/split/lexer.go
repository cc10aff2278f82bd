package split

import (
	"regexp"
	"strconv"
	"strings"
)

type SegKind int

const (
	SegCode SegKind = iota
	SegString
	SegIdent
	SegComment
)

// Segment is a contiguous region of SQL text
type Segment struct {
	Kind  SegKind
	Text  string
	Start int
	End   int
}

// Segments lexes text into code, string literal, quoted identifier and
// comment regions. Quoting follows the same rules as Split, so a segment
// boundary never disagrees with a statement boundary.
func Segments(text string) (segs []Segment) {
	n := len(text)
	start := 0

	push := func(kind SegKind, from, to int) {
		if to <= from {
			return
		}
		segs = append(segs, Segment{Kind: kind, Text: text[from:to], Start: from, End: to})
	}

	for i := 0; i < n; {
		ch := text[i]

		switch {
		case ch == '-' && i+1 < n && text[i+1] == '-':
			push(SegCode, start, i)
			j := strings.IndexByte(text[i:], '\n')
			if j == -1 {
				j = n
			} else {
				j += i
			}
			push(SegComment, i, j)
			i, start = j, j

		case ch == '/' && i+1 < n && text[i+1] == '*':
			push(SegCode, start, i)
			j := strings.Index(text[i+2:], "*/")
			if j == -1 {
				j = n
			} else {
				j += i + 4
			}
			push(SegComment, i, j)
			i, start = j, j

		case ch == '\'' || ch == '"' || ch == '`':
			push(SegCode, start, i)
			j := closeQuote(text, i)
			kind := SegIdent
			if ch == '\'' {
				kind = SegString
			}
			push(kind, i, j)
			i, start = j, j

		default:
			i++
		}
	}
	push(SegCode, start, n)
	return
}

// closeQuote returns the index just past the quoted region opened at i.
// Doubled quotes stay inside the region.
func closeQuote(text string, i int) int {
	q := text[i]
	n := len(text)

	for j := i + 1; j < n; j++ {
		if text[j] != q || escaped(text, j) {
			continue
		}
		if j+1 < n && text[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return n
}

var placeholderRe = regexp.MustCompile(`\x00([0-9]+)\x00`)

// Masked holds text whose string literals and comments have been replaced
// with placeholders.
type Masked struct {
	Text  string
	saved []string
}

// Protect replaces string literals and comments in text with placeholders so
// that pattern based rewrites only ever see code and identifiers.
func Protect(text string) *Masked {
	return protect(text, false)
}

// ProtectAll is Protect that also hides quoted identifiers
func ProtectAll(text string) *Masked {
	return protect(text, true)
}

func protect(text string, idents bool) *Masked {
	var sb strings.Builder
	m := &Masked{}

	sb.Grow(len(text))
	for _, seg := range Segments(text) {
		if seg.Kind == SegString || seg.Kind == SegComment || (idents && seg.Kind == SegIdent) {
			sb.WriteByte(0)
			sb.WriteString(strconv.Itoa(len(m.saved)))
			sb.WriteByte(0)
			m.saved = append(m.saved, seg.Text)
			continue
		}
		sb.WriteString(seg.Text)
	}
	m.Text = sb.String()
	return m
}

// Restore puts the protected regions back into s. Placeholders removed by a
// rewrite are simply gone.
func (m *Masked) Restore(s string) string {
	if len(m.saved) == 0 {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(p string) string {
		n, err := strconv.Atoi(p[1 : len(p)-1])
		if err != nil || n >= len(m.saved) {
			return p
		}
		return m.saved[n]
	})
}
