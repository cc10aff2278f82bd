package core

import (
	"strings"

	"github.com/dosco/sqlbridge/core/internal/classify"
	"github.com/dosco/sqlbridge/core/internal/split"
)

// StatementInfo describes a statement without converting it
type StatementInfo struct {
	Index    int                    `json:"index" yaml:"index"`
	Kind     classify.StatementKind `json:"kind" yaml:"kind"`
	Strategy Strategy               `json:"strategy" yaml:"strategy"`
	Features classify.FeatureSet    `json:"features" yaml:"features"`
}

type Analysis struct {
	Statements int                 `json:"statements" yaml:"statements"`
	Lines      int                 `json:"lines" yaml:"lines"`
	Procedural bool                `json:"has_complex_constructs" yaml:"has_complex_constructs"`
	Features   classify.FeatureSet `json:"features_detected" yaml:"features_detected"`
	Items      []StatementInfo     `json:"items" yaml:"items"`
	Note       string              `json:"note" yaml:"note"`
}

// Analyze reports what a script contains and which path each statement
// would take, without converting anything
func (sb *Bridge) Analyze(script string) Analysis {
	stmts := split.Split(script, split.Terminator)

	a := Analysis{
		Statements: len(stmts),
		Lines:      strings.Count(script, "\n") + 1,
		Procedural: classify.HasProcedural(script),
		Features:   sb.classifier.Classify(script),
		Items:      make([]StatementInfo, 0, len(stmts)),
		Note:       "Basic SQL analysis",
	}

	for i, s := range stmts {
		fs := sb.classifier.Classify(s)
		info := StatementInfo{
			Index:    i,
			Kind:     classify.Kind(s),
			Strategy: StrategySimple,
			Features: fs,
		}
		if fs.IsComplex() {
			info.Strategy = StrategyComplex
		}
		a.Items = append(a.Items, info)
	}
	return a
}
