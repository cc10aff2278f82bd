package dialect

func newPostgres() *Profile {
	rules := append(mysqlCleanup(),
		rule("auto_increment", `(?i)\bAUTO_INCREMENT\b`, "GENERATED BY DEFAULT AS IDENTITY"),
		rule("int", intPattern, "INTEGER"),
		rule("timestamp", `(?i)\bTIMESTAMP\b`, "TIMESTAMPTZ"),
		backticksToDouble,
		rule("datetime", `(?i)\bDATETIME\b`, "TIMESTAMP"),
		stripOnUpdate,
		rule("tinyint_bool", `(?i)\bTINYINT\s*\(\s*1\s*\)`, "BOOLEAN"),
		rule("text_types", `(?i)\b(TINY|MEDIUM|LONG)TEXT\b`, "TEXT"),
		rule("blob_types", `(?i)\b(TINY|MEDIUM|LONG)?BLOB\b`, "BYTEA"),
		rule("double", `(?i)\bDOUBLE\b(\s+PRECISION\b)?`, "DOUBLE PRECISION"),
	)

	return &Profile{
		ID:           Postgres,
		DisplayName:  "PostgreSQL",
		Note:         "PostgreSQL: GENERATED BY DEFAULT AS IDENTITY for auto-increment, TIMESTAMPTZ for timestamps",
		Quote:        QuoteStyle{`"`, `"`},
		Rules:        rules,
		NumericTypes: numericTypes,
		ForeignKeys:  FKEnforced,
		TypeMap: map[string]string{
			"INT":        "INTEGER",
			"DATETIME":   "TIMESTAMP",
			"TINYINT":    "SMALLINT",
			"DOUBLE":     "DOUBLE PRECISION",
			"TINYTEXT":   "TEXT",
			"MEDIUMTEXT": "TEXT",
			"LONGTEXT":   "TEXT",
			"BLOB":       "BYTEA",
			"LONGBLOB":   "BYTEA",
		},
		FuncMap: map[string]string{
			"IFNULL": "COALESCE",
		},
	}
}
