package dialect

func newMSSQL() *Profile {
	rules := append(mysqlCleanup(),
		rule("auto_increment", `(?i)\bAUTO_INCREMENT\b`, "IDENTITY(1,1)"),
		rule("timestamp", `(?i)\bTIMESTAMP\b`, "DATETIME2"),
		rule("datetime", `(?i)\bDATETIME\b`, "DATETIME2"),
		stripOnUpdate,
		rule("current_timestamp", `(?i)\bCURRENT_TIMESTAMP\b(\s*\(\s*\))?`, "GETDATE()"),
		identRule("backticks", "`([^`]*)`", "[${1}]"),
		rule("enum", enumPattern, "VARCHAR(20)"),
		rule("boolean", `(?i)\bBOOL(EAN)?\b`, "BIT"),
		rule("text_types", `(?i)\b(TINY|MEDIUM|LONG)TEXT\b`, "NVARCHAR(MAX)"),
		rule("double", `(?i)\bDOUBLE\b(\s+PRECISION\b)?`, "FLOAT"),
	)
	rules = append(rules, mssqlFixes()...)

	return &Profile{
		ID:              MSSQL,
		DisplayName:     "SQL Server",
		Note:            "SQL Server: IDENTITY for auto-increment, DATETIME2 for timestamps, [] for identifiers",
		Quote:           QuoteStyle{"[", "]"},
		MapDoubleQuotes: true,
		Rules:           rules,
		PostRules:       mssqlFixes(),
		NumericTypes:    numericTypes,
		ForeignKeys:     FKEnforced,
		TypeMap: map[string]string{
			"DATETIME":   "DATETIME2",
			"TIMESTAMP":  "DATETIME2",
			"TEXT":       "NVARCHAR(MAX)",
			"LONGTEXT":   "NVARCHAR(MAX)",
			"MEDIUMTEXT": "NVARCHAR(MAX)",
			"BOOLEAN":    "BIT",
			"BOOL":       "BIT",
			"DOUBLE":     "FLOAT",
		},
		FuncMap: map[string]string{
			"IFNULL": "ISNULL",
		},
		LimitStyle: LimitOffsetFetch,
	}
}

// mssqlFixes replaces type names other targets use that SQL Server lacks.
func mssqlFixes() []Rule {
	return []Rule{
		rule("int64", `(?i)\bINT64\b`, "INT"),
		rule("numeric", `(?i)\bNUMERIC\b`, "DECIMAL"),
		rule("string", `(?i)\bSTRING\b`, "VARCHAR(MAX)"),
	}
}

