package dialect

// MySQL as a target mostly undoes the spellings other dialects use
func newMySQL() *Profile {
	rules := []Rule{
		rule("identity", `(?i)\bGENERATED\s+(BY\s+DEFAULT|ALWAYS)\s+AS\s+IDENTITY\b(\s*\([^)]*\))?`, "AUTO_INCREMENT"),
		rule("identity_seed", `(?i)\bIDENTITY\s*\(\s*\d+\s*,\s*\d+\s*\)`, "AUTO_INCREMENT"),
		rule("autoincrement", `(?i)\bAUTOINCREMENT\b`, "AUTO_INCREMENT"),
		rule("timestamptz", `(?i)\bTIMESTAMPTZ\b`, "TIMESTAMP"),
		rule("timestamp_ntz", `(?i)\bTIMESTAMP_NTZ\b`, "DATETIME"),
		rule("datetime2", `(?i)\bDATETIME2\b`, "DATETIME"),
		rule("varchar2", `(?i)\bVARCHAR2\b`, "VARCHAR"),
		rule("int64", `(?i)\bINT64\b`, "BIGINT"),
		rule("getdate", `(?i)\bGETDATE\s*\(\s*\)`, "CURRENT_TIMESTAMP"),
		rule("systimestamp", `(?i)\bSYSTIMESTAMP\b`, "CURRENT_TIMESTAMP"),
	}

	return &Profile{
		ID:           MySQL,
		DisplayName:  "MySQL",
		Note:         "MySQL: Standard syntax with AUTO_INCREMENT",
		Quote:        QuoteStyle{"`", "`"},
		Rules:        rules,
		NumericTypes: numericTypes,
		ForeignKeys:  FKEnforced,
	}
}
