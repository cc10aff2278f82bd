// Package classify detects SQL features by scanning statement text for
// keyword markers. Detection is a heuristic and never fails.
package classify

import (
	"encoding/json"
	"regexp"
)

// FeatureSet records which SQL features were detected in a piece of text
type FeatureSet struct {
	WindowFunctions    bool `json:"has_window_functions"`
	CTE                bool `json:"has_cte"`
	RecursiveCTE       bool `json:"has_recursive_cte"`
	Rollup             bool `json:"has_rollup"`
	Pivot              bool `json:"has_pivot"`
	CaseWhen           bool `json:"has_case_when"`
	Subqueries         bool `json:"has_subqueries"`
	JSONFunctions      bool `json:"has_json_functions"`
	StringFunctions    bool `json:"has_string_functions"`
	DateFunctions      bool `json:"has_date_functions"`
	AggregateFunctions bool `json:"has_aggregate_functions"`
}

// IsComplex reports whether any feature that needs the complex path is present.
// Only window functions, CTEs, recursive CTEs, rollups and pivots count.
func (fs FeatureSet) IsComplex() bool {
	return fs.WindowFunctions || fs.CTE || fs.RecursiveCTE || fs.Rollup || fs.Pivot
}

// Merge returns the union of both sets
func (fs FeatureSet) Merge(o FeatureSet) FeatureSet {
	return FeatureSet{
		WindowFunctions:    fs.WindowFunctions || o.WindowFunctions,
		CTE:                fs.CTE || o.CTE,
		RecursiveCTE:       fs.RecursiveCTE || o.RecursiveCTE,
		Rollup:             fs.Rollup || o.Rollup,
		Pivot:              fs.Pivot || o.Pivot,
		CaseWhen:           fs.CaseWhen || o.CaseWhen,
		Subqueries:         fs.Subqueries || o.Subqueries,
		JSONFunctions:      fs.JSONFunctions || o.JSONFunctions,
		StringFunctions:    fs.StringFunctions || o.StringFunctions,
		DateFunctions:      fs.DateFunctions || o.DateFunctions,
		AggregateFunctions: fs.AggregateFunctions || o.AggregateFunctions,
	}
}

// Names lists the detected features in a fixed order
func (fs FeatureSet) Names() []string {
	flags := []struct {
		on   bool
		name string
	}{
		{fs.WindowFunctions, "window_functions"},
		{fs.CTE, "cte"},
		{fs.RecursiveCTE, "recursive_cte"},
		{fs.Rollup, "rollup"},
		{fs.Pivot, "pivot"},
		{fs.CaseWhen, "case_when"},
		{fs.Subqueries, "subqueries"},
		{fs.JSONFunctions, "json_functions"},
		{fs.StringFunctions, "string_functions"},
		{fs.DateFunctions, "date_functions"},
		{fs.AggregateFunctions, "aggregate_functions"},
	}

	names := []string{}
	for _, f := range flags {
		if f.on {
			names = append(names, f.name)
		}
	}
	return names
}

// MarshalJSON adds the derived is_complex flag
func (fs FeatureSet) MarshalJSON() ([]byte, error) {
	type plain FeatureSet
	return json.Marshal(struct {
		plain
		IsComplex bool `json:"is_complex"`
	}{plain(fs), fs.IsComplex()})
}

var (
	windowRe = regexp.MustCompile(`(?i)\bOVER\s*\(|\b(ROW_NUMBER|RANK|DENSE_RANK|PERCENT_RANK|CUME_DIST)\s*\(\s*\)` +
		`|\b(NTILE|LEAD|LAG|FIRST_VALUE|LAST_VALUE|NTH_VALUE)\s*\(|\bPARTITION\s+BY\b`)
	orderByRe   = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	withRe      = regexp.MustCompile(`(?i)\bWITH\b`)
	cteBodyRe   = regexp.MustCompile(`(?i)\bRECURSIVE\b|\bAS\s*\(`)
	recursiveRe = regexp.MustCompile(`(?i)\bWITH\s+RECURSIVE\b`)
	rollupRe    = regexp.MustCompile(`(?i)\bWITH\s+ROLLUP\b|\bGROUPING\s+SETS\b|\bROLLUP\s*\(|\bCUBE\s*\(`)
	pivotRe     = regexp.MustCompile(`(?i)\b(UN)?PIVOT\b`)
	caseRe      = regexp.MustCompile(`(?i)\bCASE\b`)
	subqueryRe  = regexp.MustCompile(`(?i)\(\s*(SELECT|WITH|FROM|WHERE|HAVING)\b`)
	jsonRe      = regexp.MustCompile(`(?i)\bJSON_\w*|->>?|#>>?`)
	stringRe    = regexp.MustCompile(`(?i)\b(CONCAT|SUBSTRING)\s*\(|\bREGEXP_\w*|\bLIKE\b`)
	dateRe      = regexp.MustCompile(`(?i)\b(DATE_ADD|DATE_SUB|DATEDIFF)\b|\b(YEAR|MONTH)\s*\(`)
	aggregateRe = regexp.MustCompile(`(?i)\b(SUM|AVG|COUNT|MAX|MIN)\s*\(`)
)

// Classifier detects features in statement text
type Classifier struct {
	// OrderByImpliesWindow treats any ORDER BY as a window function marker.
	// Off by default since plain sorted queries would all go down the
	// complex path.
	OrderByImpliesWindow bool
}

var defaultClassifier = Classifier{}

// Classify runs the default classifier over stmt
func Classify(stmt string) FeatureSet {
	return defaultClassifier.Classify(stmt)
}

// Classify scans stmt for feature markers. Matching is case-insensitive and
// looks at the raw text, so markers inside literals or comments are counted.
func (c Classifier) Classify(stmt string) FeatureSet {
	fs := FeatureSet{
		WindowFunctions:    windowRe.MatchString(stmt),
		CTE:                withRe.MatchString(stmt) && cteBodyRe.MatchString(stmt),
		RecursiveCTE:       recursiveRe.MatchString(stmt),
		Rollup:             rollupRe.MatchString(stmt),
		Pivot:              pivotRe.MatchString(stmt),
		CaseWhen:           caseRe.MatchString(stmt),
		Subqueries:         subqueryRe.MatchString(stmt),
		JSONFunctions:      jsonRe.MatchString(stmt),
		StringFunctions:    stringRe.MatchString(stmt),
		DateFunctions:      dateRe.MatchString(stmt),
		AggregateFunctions: aggregateRe.MatchString(stmt),
	}

	if c.OrderByImpliesWindow && !fs.WindowFunctions {
		fs.WindowFunctions = orderByRe.MatchString(stmt)
	}
	return fs
}
