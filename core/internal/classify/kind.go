package classify

import (
	"regexp"
	"strings"

	"github.com/dosco/sqlbridge/core/internal/split"
)

// StatementKind is the broad category of a SQL statement
type StatementKind int

const (
	KindOther   StatementKind = iota
	KindDDL                   // CREATE, DROP, ALTER, TRUNCATE, RENAME, COMMENT
	KindDML                   // INSERT, UPDATE, DELETE, REPLACE, MERGE, UPSERT
	KindDQL                   // SELECT, WITH, VALUES, TABLE
	KindTCL                   // BEGIN, COMMIT, ROLLBACK, SAVEPOINT, START
	KindDCL                   // GRANT, REVOKE, DENY
	KindUtility               // SHOW, DESCRIBE, EXPLAIN, SET, USE, PRAGMA
)

func (k StatementKind) String() string {
	switch k {
	case KindDDL:
		return "DDL"
	case KindDML:
		return "DML"
	case KindDQL:
		return "DQL"
	case KindTCL:
		return "TCL"
	case KindDCL:
		return "DCL"
	case KindUtility:
		return "UTILITY"
	default:
		return "OTHER"
	}
}

func (k StatementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names written by MarshalText, unknown names
// decode as KindOther
func (k *StatementKind) UnmarshalText(b []byte) error {
	*k = KindOther
	for c := KindDDL; c <= KindUtility; c++ {
		if strings.EqualFold(string(b), c.String()) {
			*k = c
			break
		}
	}
	return nil
}

var kindByKeyword = map[string]StatementKind{
	"CREATE":    KindDDL,
	"DROP":      KindDDL,
	"ALTER":     KindDDL,
	"TRUNCATE":  KindDDL,
	"RENAME":    KindDDL,
	"COMMENT":   KindDDL,
	"INSERT":    KindDML,
	"UPDATE":    KindDML,
	"DELETE":    KindDML,
	"REPLACE":   KindDML,
	"MERGE":     KindDML,
	"UPSERT":    KindDML,
	"SELECT":    KindDQL,
	"WITH":      KindDQL,
	"VALUES":    KindDQL,
	"TABLE":     KindDQL,
	"BEGIN":     KindTCL,
	"START":     KindTCL,
	"COMMIT":    KindTCL,
	"ROLLBACK":  KindTCL,
	"SAVEPOINT": KindTCL,
	"GRANT":     KindDCL,
	"REVOKE":    KindDCL,
	"DENY":      KindDCL,
	"SHOW":      KindUtility,
	"DESCRIBE":  KindUtility,
	"DESC":      KindUtility,
	"EXPLAIN":   KindUtility,
	"SET":       KindUtility,
	"USE":       KindUtility,
	"PRAGMA":    KindUtility,
	"ANALYZE":   KindUtility,
}

var firstWordRe = regexp.MustCompile(`^[\s(]*([A-Za-z_]+)`)

// Kind returns the category of stmt based on its first keyword
func Kind(stmt string) StatementKind {
	_, body := split.LeadingComments(stmt)

	m := firstWordRe.FindStringSubmatch(body)
	if m == nil {
		return KindOther
	}
	return kindByKeyword[strings.ToUpper(m[1])]
}

var proceduralRe = regexp.MustCompile(`(?i)\bCREATE\s+(OR\s+REPLACE\s+)?(PROCEDURE|FUNCTION|TRIGGER)\b|\bDELIMITER\b`)

// HasProcedural reports whether script defines stored routines or switches
// the client delimiter. Such scripts rarely survive a statement level
// conversion untouched.
func HasProcedural(script string) bool {
	return proceduralRe.MatchString(script)
}
