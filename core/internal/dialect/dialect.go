// Package dialect holds the per dialect rewrite profiles: the ordered text
// rules for the simple path, quoting, foreign key policy and the type map
// used by the complex path.
package dialect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type ID string

const (
	MySQL     ID = "mysql"
	Postgres  ID = "postgres"
	Oracle    ID = "oracle"
	MSSQL     ID = "mssql"
	SQLite    ID = "sqlite"
	Snowflake ID = "snowflake"
	BigQuery  ID = "bigquery"
	Redshift  ID = "redshift"
)

// ErrUnknown is returned for a dialect name outside the supported set
var ErrUnknown = errors.New("unknown dialect")

var aliases = map[string]ID{
	"postgresql": Postgres,
	"pg":         Postgres,
	"sqlserver":  MSSQL,
	"tsql":       MSSQL,
	"sqlite3":    SQLite,
	"bq":         BigQuery,
	"mariadb":    MySQL,
}

// FKPolicy decides what happens to foreign key constraints in the output
type FKPolicy int

const (
	// FKEnforced leaves constraints alone
	FKEnforced FKPolicy = iota
	// FKAnnotate keeps constraints and adds a comment that they are not enforced
	FKAnnotate
	// FKStrip removes constraints
	FKStrip
	// FKPragma keeps constraints and switches enforcement on with a pragma
	FKPragma
)

func (p FKPolicy) String() string {
	switch p {
	case FKAnnotate:
		return "annotate"
	case FKStrip:
		return "strip"
	case FKPragma:
		return "pragma"
	default:
		return "enforced"
	}
}

// LimitStyle is how the complex path renders row limits
type LimitStyle int

const (
	LimitClause LimitStyle = iota
	LimitOffsetFetch
)

// QuoteStyle is the identifier quoting of a dialect
type QuoteStyle struct {
	Open  string
	Close string
}

func (q QuoteStyle) Quote(s string) string {
	return q.Open + s + q.Close
}

// Rule is a single ordered text substitution
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string

	// Idents lets the rule see quoted identifiers, otherwise they are
	// masked along with string literals and comments
	Idents bool
}

func (r Rule) Apply(s string) string {
	return r.Pattern.ReplaceAllString(s, r.Replace)
}

func rule(name, pattern, replace string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Replace: replace}
}

func identRule(name, pattern, replace string) Rule {
	r := rule(name, pattern, replace)
	r.Idents = true
	return r
}

// Profile describes how text is rewritten for a target dialect.
// Profiles are built once and never modified.
type Profile struct {
	ID          ID
	DisplayName string
	Note        string

	Quote           QuoteStyle
	MapDoubleQuotes bool

	Rules     []Rule
	PostRules []Rule

	NumericTypes []string

	ForeignKeys FKPolicy
	FKComment   string

	TypeMap    map[string]string
	FuncMap    map[string]string
	LimitStyle LimitStyle
}

// Info is the public summary of a dialect
type Info struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Description string `json:"description" yaml:"description"`
}

func (p *Profile) Info() Info {
	return Info{Name: string(p.ID), DisplayName: p.DisplayName, Description: p.Note}
}

var order = []ID{MySQL, Postgres, Oracle, MSSQL, SQLite, Snowflake, BigQuery, Redshift}

var profiles = map[ID]*Profile{
	MySQL:     newMySQL(),
	Postgres:  newPostgres(),
	Oracle:    newOracle(),
	MSSQL:     newMSSQL(),
	SQLite:    newSQLite(),
	Snowflake: newSnowflake(),
	BigQuery:  newBigQuery(),
	Redshift:  newRedshift(),
}

// All returns the supported dialects in display order
func All() []ID {
	ids := make([]ID, len(order))
	copy(ids, order)
	return ids
}

// Names returns the supported dialect names
func Names() []string {
	names := make([]string, 0, len(order))
	for _, id := range order {
		names = append(names, string(id))
	}
	return names
}

// Parse resolves a dialect name or alias, case-insensitively
func Parse(name string) (ID, error) {
	n := strings.ToLower(strings.TrimSpace(name))

	if id, ok := aliases[n]; ok {
		return id, nil
	}
	if _, ok := profiles[ID(n)]; ok {
		return ID(n), nil
	}
	return "", fmt.Errorf("%w %q: supported dialects are %s",
		ErrUnknown, name, strings.Join(Names(), ", "))
}

// Get returns the profile for id or nil
func Get(id ID) *Profile {
	return profiles[id]
}

// Lookup parses name and returns its profile
func Lookup(name string) (*Profile, error) {
	id, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return profiles[id], nil
}

// Infos lists every supported dialect
func Infos() []Info {
	list := make([]Info, 0, len(order))
	for _, id := range order {
		list = append(list, profiles[id].Info())
	}
	return list
}

// DefaultNote is used when a dialect has no note of its own
const DefaultNote = "Check dialect-specific documentation"

var numericTypes = []string{"NUMBER", "DECIMAL", "NUMERIC"}

// Rules shared by several targets. Patterns run on text with string
// literals and comments masked.
var (
	stripTableOptions = rule("strip_table_options",
		`(?i)\s+(ENGINE|(DEFAULT\s+)?(CHARSET|CHARACTER\s+SET)|COLLATE|ROW_FORMAT)\s*=\s*\w+`, "")
	stripTableAutoInc = rule("strip_table_auto_increment",
		`(?i)\s+AUTO_INCREMENT\s*=\s*\d+`, "")
	stripColumnComment = rule("strip_comment_clause",
		`(?i)\s+COMMENT\s*=?\s*\x00\d+\x00`, "")
	stripUnsigned = rule("strip_unsigned",
		`(?i)\s+UNSIGNED\b`, "")
	stripOnUpdate = rule("strip_on_update",
		`(?i)\s*\bON\s+UPDATE\s+CURRENT_TIMESTAMP\b(\s*\(\s*\d*\s*\))?`, "")
	backticksToDouble = identRule("backticks",
		"`([^`]*)`", `"${1}"`)
	enumPattern = `(?i)\bENUM\s*\([^)]*\)`
	intPattern  = `(?i)\bINT\b(\s*\(\s*\d+\s*\))?`
)

// mysqlCleanup strips MySQL only table and column options
func mysqlCleanup() []Rule {
	return []Rule{stripTableOptions, stripTableAutoInc, stripColumnComment, stripUnsigned}
}
