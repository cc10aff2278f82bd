// Package core provides an API to convert SQL scripts between dialects.
//
// Each statement of a script is classified. Plain statements go through
// ordered text rules for the target dialect, statements with window
// functions, CTEs, rollups or pivots go through a full SQL transpiler. A
// statement the transpiler cannot handle is kept as is behind a comment, it
// never fails the whole script.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dosco/sqlbridge/core/internal/classify"
	"github.com/dosco/sqlbridge/core/internal/dialect"
	"github.com/dosco/sqlbridge/core/internal/transpile"
	"go.uber.org/zap"
)

var (
	ErrUnknownDialect = errors.New("unknown dialect")
	ErrEmptyInput     = errors.New("no sql to convert")
)

// Bridge converts SQL scripts. It is safe for concurrent use.
type Bridge struct {
	conf       Config
	log        *zap.Logger
	cache      Cache
	optsHash   uint64
	engine     transpile.Engine
	adapter    *transpile.Adapter
	classifier classify.Classifier
}

type Option func(*Bridge) error

// New creates a Bridge. A nil config uses the defaults.
func New(conf *Config, options ...Option) (sb *Bridge, err error) {
	if conf == nil {
		conf = &Config{}
	}
	if err = conf.Validate(); err != nil {
		return
	}

	sb = &Bridge{
		conf: conf.withDefaults(),
		log:  zap.NewNop(),
	}
	sb.classifier = classify.Classifier{
		OrderByImpliesWindow: sb.conf.OrderByImpliesWindow,
	}

	if err = sb.initCache(); err != nil {
		return nil, err
	}

	for _, op := range options {
		if err = op(sb); err != nil {
			return nil, err
		}
	}

	sb.cache.log = sb.log

	if sb.engine == nil {
		if sb.engine, err = transpile.NewVitess(); err != nil {
			return nil, err
		}
	}
	sb.adapter = transpile.NewAdapter(sb.engine, sb.conf.TranspileTimeout, sb.log)

	sb.log.Debug("sqlbridge ready",
		zap.String("engine", sb.engine.Name()),
		zap.Int("workers", sb.conf.Workers),
		zap.Int("cache_size", sb.conf.CacheSize))
	return sb, nil
}

// OptionSetLogger sets the logger used for warnings and debug output
func OptionSetLogger(log *zap.Logger) Option {
	return func(sb *Bridge) error {
		if log == nil {
			return errors.New("logger is nil")
		}
		sb.log = log
		return nil
	}
}

// OptionSetEngine replaces the transpiler used for complex statements
func OptionSetEngine(e transpile.Engine) Option {
	return func(sb *Bridge) error {
		sb.engine = e
		return nil
	}
}

// Config returns the effective configuration
func (sb *Bridge) Config() Config {
	return sb.conf
}

// DialectInfo describes a supported dialect
type DialectInfo = dialect.Info

// FeatureSet records the constructs detected in a script
type FeatureSet = classify.FeatureSet

// SupportedDialects lists the dialects that can be converted from and to
func SupportedDialects() []DialectInfo {
	return dialect.Infos()
}

// DialectNames lists the names accepted for a dialect
func DialectNames() []string {
	return dialect.Names()
}

// DialectsYAML renders the rule tables of the named dialects, or all of
// them, as YAML
func DialectsYAML(names ...string) ([]byte, error) {
	ids := make([]dialect.ID, 0, len(names))
	for _, n := range names {
		id, err := parseDialect(n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return dialect.ExportYAML(ids...)
}

func parseDialect(name string) (dialect.ID, error) {
	id, err := dialect.Parse(name)
	if err != nil {
		return "", fmt.Errorf("%w %q: supported dialects are %s",
			ErrUnknownDialect, name, strings.Join(dialect.Names(), ", "))
	}
	return id, nil
}

// Strategy is the path a statement took through the converter
type Strategy string

const (
	StrategySimple  Strategy = "simple"
	StrategyComplex Strategy = "complex"
)

// Statement is the conversion of one statement of the input script
type Statement struct {
	Index     int                    `json:"index" yaml:"index"`
	Raw       string                 `json:"raw" yaml:"raw"`
	Kind      classify.StatementKind `json:"kind" yaml:"kind"`
	Features  classify.FeatureSet    `json:"features" yaml:"features"`
	Strategy  Strategy               `json:"strategy" yaml:"strategy"`
	Rewritten string                 `json:"rewritten" yaml:"rewritten"`
	Dropped   bool                   `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Fallback  bool                   `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Reason    string                 `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Tally counts statements per strategy
type Tally struct {
	Simple  int `json:"simple" yaml:"simple"`
	Complex int `json:"complex" yaml:"complex"`
}

// Result is the outcome of converting a script
type Result struct {
	Script     string              `json:"script" yaml:"script"`
	From       string              `json:"from_dialect" yaml:"from_dialect"`
	To         string              `json:"to_dialect" yaml:"to_dialect"`
	Statements []Statement         `json:"statements" yaml:"statements"`
	Total      int                 `json:"total_statements" yaml:"total_statements"`
	Tally      Tally               `json:"methods_used" yaml:"methods_used"`
	Primary    Strategy            `json:"primary_method" yaml:"primary_method"`
	Features   classify.FeatureSet `json:"features_detected" yaml:"features_detected"`
	Note       string              `json:"note" yaml:"note"`
	Warnings   []string            `json:"warnings" yaml:"warnings"`
}
