package dialect

func newOracle() *Profile {
	rules := append(mysqlCleanup(),
		rule("primary_key_auto_increment", `(?i)\bPRIMARY\s+KEY\s+AUTO_INCREMENT\b`,
			"GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"),
		rule("auto_increment", `(?i)\bAUTO_INCREMENT\b`, "GENERATED BY DEFAULT AS IDENTITY"),
		rule("int", intPattern, "NUMBER(10)"),
		rule("varchar", `(?i)\bVARCHAR\s*\(`, "VARCHAR2("),
		rule("decimal", `(?i)\bDECIMAL\s*\(`, "NUMBER("),
		rule("datetime", `(?i)\bDATETIME\b`, "DATE"),
		rule("default_current_timestamp", `(?i)\bDEFAULT\s+CURRENT_TIMESTAMP\b(\s*\(\s*\d*\s*\))?`, "DEFAULT SYSTIMESTAMP"),
		stripOnUpdate,
		rule("enum", enumPattern, "VARCHAR2(20)"),
		rule("text_types", `(?i)\b(TINY|MEDIUM|LONG)?TEXT\b`, "CLOB"),
	)

	return &Profile{
		ID:           Oracle,
		DisplayName:  "Oracle",
		Note:         "Oracle: Use SEQUENCES or GENERATED AS IDENTITY for auto-increment, VARCHAR2 instead of VARCHAR",
		Quote:        QuoteStyle{`"`, `"`},
		Rules:        rules,
		NumericTypes: numericTypes,
		ForeignKeys:  FKEnforced,
		TypeMap: map[string]string{
			"INT":      "NUMBER(10)",
			"INTEGER":  "NUMBER(10)",
			"VARCHAR":  "VARCHAR2",
			"DECIMAL":  "NUMBER",
			"DATETIME": "DATE",
			"TEXT":     "CLOB",
		},
		FuncMap: map[string]string{
			"IFNULL": "NVL",
		},
		LimitStyle: LimitOffsetFetch,
	}
}
