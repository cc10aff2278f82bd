package dialect

func newRedshift() *Profile {
	rules := append(mysqlCleanup(),
		rule("auto_increment", `(?i)\bAUTO_INCREMENT\b`, "IDENTITY(1,1)"),
		rule("int", intPattern, "INTEGER"),
		rule("datetime", `(?i)\bDATETIME\b`, "TIMESTAMP"),
		stripOnUpdate,
		rule("current_timestamp", `(?i)\bCURRENT_TIMESTAMP\b(\s*\(\s*\))?`, "GETDATE()"),
		rule("enum", enumPattern, "VARCHAR(20)"),
		rule("text_types", `(?i)\b(TINY|MEDIUM|LONG)TEXT\b`, "VARCHAR(MAX)"),
		backticksToDouble,
	)

	return &Profile{
		ID:           Redshift,
		DisplayName:  "Redshift",
		Note:         "Redshift: Based on PostgreSQL, IDENTITY for auto-increment, limited FOREIGN KEY",
		Quote:        QuoteStyle{`"`, `"`},
		Rules:        rules,
		NumericTypes: numericTypes,
		ForeignKeys:  FKAnnotate,
		FKComment:    "-- Redshift doesn't enforce FOREIGN KEY constraints:",
		TypeMap: map[string]string{
			"INT":        "INTEGER",
			"DATETIME":   "TIMESTAMP",
			"LONGTEXT":   "VARCHAR(MAX)",
			"MEDIUMTEXT": "VARCHAR(MAX)",
		},
		FuncMap: map[string]string{
			"IFNULL": "NVL",
		},
	}
}
