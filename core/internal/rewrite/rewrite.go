// Package rewrite is the simple conversion path: ordered text substitutions
// taken from the target dialect profile. No parsing is involved.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/dosco/sqlbridge/core/internal/dialect"
	"github.com/dosco/sqlbridge/core/internal/split"
)

var (
	repeatedTermRe = regexp.MustCompile(`\)\s*;(\s*;)+`)
	foreignKeyRe   = regexp.MustCompile(`(?i)\bFOREIGN\s+KEY\b`)
	alterAddFKRe   = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\b.*\bADD\s+(CONSTRAINT\s+\S+\s+)?FOREIGN\s+KEY\b`)
	emptyAlterRe   = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+(IF\s+EXISTS\s+)?(ONLY\s+)?[^\s;]+\s*;?\s*$`)

	alterFKClause = dialect.Rule{
		Name:    "strip_alter_foreign_key",
		Pattern: regexp.MustCompile(dialect.AlterFKClausePattern),
		Idents:  true,
	}
)

// Apply rewrites stmt for the target profile. Each rule runs once, in order,
// over the statement with string literals and comments masked. A statement
// the profile removes entirely comes back as an empty string.
func Apply(stmt string, p *dialect.Profile) string {
	s := ApplyRule(stmt, dialect.Rule{Pattern: repeatedTermRe, Replace: ");"})

	for _, r := range p.Rules {
		s = ApplyRule(s, r)
	}

	if strings.TrimSpace(s) == "" || (HasForeignKey(stmt) && emptyAlter(s)) {
		return ""
	}

	if p.ForeignKeys == dialect.FKAnnotate {
		s = Annotate(s, p)
	}
	return s
}

// ApplyRule runs a single rule over s leaving literals and comments intact
func ApplyRule(s string, r dialect.Rule) string {
	var m *split.Masked
	if r.Idents {
		m = split.Protect(s)
	} else {
		m = split.ProtectAll(s)
	}
	return m.Restore(r.Apply(m.Text))
}

// Drops reports whether the target has no representation for stmt at all,
// such as an ALTER TABLE that only adds foreign keys to a dialect without
// them. Other clauses of the ALTER keep it alive.
func Drops(stmt string, p *dialect.Profile) bool {
	if p.ForeignKeys != dialect.FKStrip {
		return false
	}
	_, body := split.LeadingComments(stmt)
	if !alterAddFKRe.MatchString(split.ProtectAll(body).Text) {
		return false
	}
	return emptyAlter(StripAlterForeignKeys(body))
}

// StripAlterForeignKeys removes the ADD FOREIGN KEY clauses of an ALTER TABLE
func StripAlterForeignKeys(s string) string {
	return ApplyRule(s, alterFKClause)
}

// emptyAlter reports whether s is an ALTER TABLE with no clause left
func emptyAlter(s string) bool {
	_, body := split.LeadingComments(s)
	return emptyAlterRe.MatchString(split.ProtectAll(body).Text)
}

// HasForeignKey reports whether code in s, outside literals and comments,
// mentions a foreign key
func HasForeignKey(s string) bool {
	return foreignKeyRe.MatchString(split.ProtectAll(s).Text)
}

// Annotate prefixes s with the profile's foreign key comment when s
// declares a foreign key. It is a no-op when the comment is already there.
func Annotate(s string, p *dialect.Profile) string {
	if p.FKComment == "" || !HasForeignKey(s) || strings.Contains(s, p.FKComment) {
		return s
	}
	return p.FKComment + "\n" + s
}
