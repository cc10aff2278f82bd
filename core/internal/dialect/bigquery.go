package dialect

const fkReference = `(CONSTRAINT\s+\S+\s+)?FOREIGN\s+KEY\s*\([^)]*\)\s*REFERENCES\s*[^\s(]+\s*\([^)]*\)` +
	`(\s*ON\s+(DELETE|UPDATE)\s+(CASCADE|RESTRICT|NO\s+ACTION|SET\s+NULL|SET\s+DEFAULT))*`

// FKClausePattern matches an inline foreign key constraint together with the
// comma in front of it. Quoted identifiers must be visible to it.
const FKClausePattern = `(?i),?\s*` + fkReference

// AlterFKClausePattern matches one ADD FOREIGN KEY clause of an ALTER TABLE
// with the comma that separates it from its neighbour, the one in front
// when there is one, else the one after it.
const AlterFKClausePattern = `(?i)(?:,\s*ADD\s+` + fkReference + `|\bADD\s+` + fkReference + `(?:\s*,\s*)?)`

func newBigQuery() *Profile {
	rules := []Rule{
		identRule("strip_alter_foreign_key", AlterFKClausePattern, ""),
	}
	rules = append(rules, mysqlCleanup()...)
	rules = append(rules,
		rule("auto_increment", `(?i)\s*\bAUTO_INCREMENT\b`, ""),
		rule("int", `(?i)\b(INT|INTEGER|SMALLINT|TINYINT|MEDIUMINT|BIGINT)\b(\s*\(\s*\d+\s*\))?`, "INT64"),
		rule("varchar", `(?i)\b(VARCHAR|CHAR)\s*\(\s*\d+\s*\)`, "STRING"),
		rule("decimal", `(?i)\bDECIMAL\s*\(`, "NUMERIC("),
		rule("datetime", `(?i)\bDATETIME\b`, "TIMESTAMP"),
		rule("default_current_timestamp", `(?i)\bDEFAULT\s+CURRENT_TIMESTAMP\b(\s*\(\s*(\d*)\s*\))?`,
			"DEFAULT CURRENT_TIMESTAMP(${2})"),
		stripOnUpdate,
		identRule("strip_foreign_key", FKClausePattern, ""),
		rule("enum", enumPattern, "STRING"),
		rule("text_types", `(?i)\b(TINY|MEDIUM|LONG)?TEXT\b`, "STRING"),
		rule("double", `(?i)\b(DOUBLE|FLOAT)\b(\s+PRECISION\b)?`, "FLOAT64"),
		rule("boolean", `(?i)\bBOOLEAN\b`, "BOOL"),
	)

	return &Profile{
		ID:              BigQuery,
		DisplayName:     "BigQuery",
		Note:            "BigQuery: No FOREIGN KEY support, STRING instead of VARCHAR, NUMERIC for decimals",
		Quote:           QuoteStyle{"`", "`"},
		MapDoubleQuotes: true,
		Rules:           rules,
		NumericTypes:    numericTypes,
		ForeignKeys:     FKStrip,
		FKComment:       "-- BigQuery doesn't support:",
		TypeMap: map[string]string{
			"INT":      "INT64",
			"INTEGER":  "INT64",
			"SMALLINT": "INT64",
			"TINYINT":  "INT64",
			"BIGINT":   "INT64",
			"VARCHAR":  "STRING",
			"CHAR":     "STRING",
			"TEXT":     "STRING",
			"DECIMAL":  "NUMERIC",
			"DATETIME": "TIMESTAMP",
			"DOUBLE":   "FLOAT64",
			"FLOAT":    "FLOAT64",
			"BOOLEAN":  "BOOL",
		},
	}
}
