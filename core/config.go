package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/dosco/sqlbridge/core/internal/dialect"
)

const (
	DefaultWorkers          = 1
	DefaultCacheSize        = 5000
	DefaultTranspileTimeout = 5 * time.Second
)

// Configuration for the sqlbridge converter core
type Config struct {
	// Dialect assumed for input when the caller does not name one. Defaults to mysql
	SourceDialect string `mapstructure:"source_dialect" json:"source_dialect" yaml:"source_dialect" jsonschema:"title=Source Dialect,default=mysql"`

	// Number of statements converted in parallel. Output order never depends on it
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers" jsonschema:"title=Workers,default=1"`

	// Time allowed for the complex transpiler on a single statement
	TranspileTimeout time.Duration `mapstructure:"transpile_timeout" json:"transpile_timeout" yaml:"transpile_timeout" jsonschema:"title=Transpile Timeout,default=5s"`

	// Number of converted statements to keep in memory. Zero uses the
	// default, a negative value disables the cache
	CacheSize int `mapstructure:"cache_size" json:"cache_size" yaml:"cache_size" jsonschema:"title=Cache Size,default=5000"`

	// Lay out CREATE TABLE statements one column per line and break complex
	// statements into one clause per line
	Pretty bool `mapstructure:"pretty" json:"pretty" yaml:"pretty" jsonschema:"title=Pretty Output,default=false"`

	// Keep a comment in front of statements that failed the complex path.
	// When false the failure is only reported in the result warnings
	MarkComplex *bool `mapstructure:"mark_complex" json:"mark_complex" yaml:"mark_complex" jsonschema:"title=Mark Complex Fallbacks,default=true"`

	// Treat any ORDER BY as a window function when classifying
	OrderByImpliesWindow bool `mapstructure:"order_by_implies_window" json:"order_by_implies_window" yaml:"order_by_implies_window" jsonschema:"title=ORDER BY Implies Window,default=false"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.SourceDialect != "" {
		if _, err := parseDialect(c.SourceDialect); err != nil {
			return fmt.Errorf("source_dialect: %w", err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers: must not be negative, got %d", c.Workers)
	}
	if c.TranspileTimeout < 0 {
		return fmt.Errorf("transpile_timeout: must not be negative, got %s", c.TranspileTimeout)
	}
	return nil
}

// withDefaults returns a copy of c with empty values filled in
func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.SourceDialect) == "" {
		c.SourceDialect = string(dialect.MySQL)
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.TranspileTimeout == 0 {
		c.TranspileTimeout = DefaultTranspileTimeout
	}
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.MarkComplex == nil {
		v := true
		c.MarkComplex = &v
	}
	return c
}
