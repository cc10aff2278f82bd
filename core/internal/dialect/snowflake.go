package dialect

func newSnowflake() *Profile {
	rules := append(mysqlCleanup(),
		rule("auto_increment", `(?i)\bAUTO_INCREMENT\b`, "AUTOINCREMENT"),
		rule("int", intPattern, "NUMBER"),
		rule("decimal", `(?i)\bDECIMAL\s*\(`, "NUMBER("),
		rule("datetime", `(?i)\bDATETIME\b`, "TIMESTAMP_NTZ"),
		rule("default_current_timestamp", `(?i)\bDEFAULT\s+CURRENT_TIMESTAMP\b(\s*\(\s*(\d*)\s*\))?`,
			"DEFAULT CURRENT_TIMESTAMP(${2})"),
		stripOnUpdate,
		backticksToDouble,
	)

	return &Profile{
		ID:           Snowflake,
		DisplayName:  "Snowflake",
		Note:         "Snowflake: No FOREIGN KEY enforcement, AUTOINCREMENT for auto-increment, NUMBER for numeric types",
		Quote:        QuoteStyle{`"`, `"`},
		Rules:        rules,
		NumericTypes: numericTypes,
		ForeignKeys:  FKAnnotate,
		FKComment:    "-- Snowflake doesn't enforce FOREIGN KEY constraints:",
		TypeMap: map[string]string{
			"INT":      "NUMBER",
			"DECIMAL":  "NUMBER",
			"DATETIME": "TIMESTAMP_NTZ",
		},
	}
}
