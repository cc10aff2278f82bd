// Package postproc normalizes rewritten statements for a target dialect.
// It runs after both the simple and the complex path.
package postproc

import (
	"regexp"
	"strings"

	"github.com/dosco/sqlbridge/core/internal/dialect"
	"github.com/dosco/sqlbridge/core/internal/rewrite"
	"github.com/dosco/sqlbridge/core/internal/split"
)

var (
	spaceRunRe     = regexp.MustCompile(`[ \t]{2,}`)
	spaceCommaRe   = regexp.MustCompile(`[ \t]+,`)
	commaRe        = regexp.MustCompile(`,[ \t]*`)
	repeatedTermRe = regexp.MustCompile(`\)\s*;(\s*;)+|;(\s*;)+`)
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
	backtickRe     = regexp.MustCompile("`([^`]*)`")
	doubleQuoteRe  = regexp.MustCompile(`"([^"]*)"`)
	numericRe      = regexp.MustCompile(`(?i)\b(NUMBER|DECIMAL|NUMERIC|IDENTITY)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)
	danglingRe     = regexp.MustCompile(`,((?:\s*\x00\d+\x00)*\s*)\)`)
	foreignKeyRe   = regexp.MustCompile(`(?i)\bFOREIGN\s+KEY\b`)

	fkClause = dialect.Rule{
		Name:    "strip_foreign_key",
		Pattern: regexp.MustCompile(dialect.FKClausePattern),
		Idents:  true,
	}
)

// Process normalizes whitespace, converts identifier quoting, canonicalizes
// numeric type arguments, applies the profile's post rules and makes sure
// foreign keys follow the profile's policy. Running it twice gives the same
// result as running it once.
func Process(text string, p *dialect.Profile) string {
	// quoted identifiers keep their spelling, only their quotes change
	m := split.ProtectAll(text)
	s := m.Restore(canonicalNumeric(normalizeSpace(m.Text), p))

	m = split.Protect(s)
	s = m.Restore(convertQuotes(m.Text, p))

	for _, r := range p.PostRules {
		s = rewrite.ApplyRule(s, r)
	}

	switch p.ForeignKeys {
	case dialect.FKStrip:
		s = stripForeignKeys(s, p)
	case dialect.FKAnnotate:
		s = rewrite.Annotate(s, p)
	}

	return strings.TrimSpace(s)
}

// normalizeSpace works line by line so multi line statements keep their
// layout and indentation
func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")

	for i, line := range lines {
		body := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(body)]

		body = spaceRunRe.ReplaceAllString(body, " ")
		body = spaceCommaRe.ReplaceAllString(body, ",")
		body = commaRe.ReplaceAllString(body, ", ")
		body = strings.TrimRight(body, " \t\r")

		if body == "" {
			lines[i] = ""
		} else {
			lines[i] = indent + body
		}
	}

	s = strings.Join(lines, "\n")
	s = repeatedTermRe.ReplaceAllStringFunc(s, func(m string) string {
		if m[0] == ')' {
			return ");"
		}
		return ";"
	})
	return blankLinesRe.ReplaceAllString(s, "\n\n")
}

func convertQuotes(s string, p *dialect.Profile) string {
	repl := p.Quote.Open + "${1}" + p.Quote.Close

	if p.Quote.Open != "`" {
		s = backtickRe.ReplaceAllString(s, repl)
	}
	if p.MapDoubleQuotes && p.Quote.Open != `"` {
		s = doubleQuoteRe.ReplaceAllString(s, repl)
	}
	return s
}

func canonicalNumeric(s string, p *dialect.Profile) string {
	return numericRe.ReplaceAllStringFunc(s, func(m string) string {
		sm := numericRe.FindStringSubmatch(m)
		if !strings.EqualFold(sm[1], "IDENTITY") && !hasType(p.NumericTypes, sm[1]) {
			return m
		}
		if sm[3] == "" {
			return sm[1] + "(" + sm[2] + ")"
		}
		return sm[1] + "(" + sm[2] + "," + sm[3] + ")"
	})
}

func hasType(list []string, name string) bool {
	for _, v := range list {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}

// stripForeignKeys removes inline constraints, comments out any remaining
// line that declares one and drops the comma left dangling before a
// closing paren
func stripForeignKeys(s string, p *dialect.Profile) string {
	s = rewrite.StripAlterForeignKeys(s)
	s = rewrite.ApplyRule(s, fkClause)

	m := split.Protect(s)
	lines := strings.Split(m.Text, "\n")
	for i, line := range lines {
		if !foreignKeyRe.MatchString(line) {
			continue
		}
		body := strings.TrimLeft(line, " \t")
		lines[i] = line[:len(line)-len(body)] + p.FKComment + " " + body
	}
	s = m.Restore(strings.Join(lines, "\n"))

	m = split.Protect(s)
	return m.Restore(danglingRe.ReplaceAllString(m.Text, "${1})"))
}
