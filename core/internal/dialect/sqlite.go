package dialect

func newSQLite() *Profile {
	rules := append(mysqlCleanup(),
		rule("auto_increment", `(?i)\bAUTO_INCREMENT\b`, "AUTOINCREMENT"),
		rule("int", intPattern, "INTEGER"),
		rule("varchar", `(?i)\bVARCHAR\s*\(\s*\d+\s*\)`, "TEXT"),
		rule("decimal", `(?i)\bDECIMAL\b(\s*\([^)]*\))?`, "REAL"),
		rule("timestamp", `(?i)\bTIMESTAMP\b`, "TEXT"),
		rule("datetime", `(?i)\bDATETIME\b`, "TEXT"),
		rule("date", `(?i)\bDATE\b`, "TEXT"),
		rule("enum", enumPattern, "TEXT"),
		stripOnUpdate,
	)

	return &Profile{
		ID:           SQLite,
		DisplayName:  "SQLite",
		Note:         "SQLite: TEXT for strings and dates, REAL for decimals, AUTOINCREMENT for auto-increment",
		Quote:        QuoteStyle{`"`, `"`},
		Rules:        rules,
		NumericTypes: numericTypes,
		ForeignKeys:  FKPragma,
		FKComment:    "-- SQLite requires PRAGMA foreign_keys = ON for FK support\nPRAGMA foreign_keys = ON;",
		TypeMap: map[string]string{
			"INT":       "INTEGER",
			"VARCHAR":   "TEXT",
			"CHAR":      "TEXT",
			"DECIMAL":   "REAL",
			"DATETIME":  "TEXT",
			"TIMESTAMP": "TEXT",
			"DATE":      "TEXT",
		},
	}
}
