package main

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dosco/sqlbridge/core"
	"github.com/dosco/sqlbridge/serv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// These variables are set using -ldflags
	version string
	commit  string
	date    string
)

var (
	log   *zap.SugaredLogger
	conf  *serv.Config
	cpath string
)

// Cmd is the entry point for the CLI
func Cmd() {
	log = newLogger(false).Sugar()

	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("%s", err)
	}
}

func rootCmd() *cobra.Command {
	cobra.EnableCommandSorting = false
	rootCmd := &cobra.Command{
		Use:           "sqlbridge",
		Short:         BuildDetails(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cpath,
		"path", "./config", "path to config files")

	// Add --config as an alias for --path
	rootCmd.PersistentFlags().StringVar(&cpath,
		"config", "./config", "alias for --path")
	rootCmd.PersistentFlags().MarkHidden("config") //nolint:errcheck

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(dialectsCmd())
	rootCmd.AddCommand(servCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// setup is a helper function to read the config file
func setup(cpath string) {
	if conf != nil {
		return
	}

	cp, err := filepath.Abs(cpath)
	if err != nil {
		log.Fatal(err)
	}

	cn := serv.GetConfigName()

	// Auto-create config directory and default config file only if the
	// config directory itself does not exist. If the directory is already
	// present we let ReadInConfig report any missing file errors.
	if _, err := os.Stat(cp); os.IsNotExist(err) {
		if err := os.MkdirAll(cp, os.ModePerm); err != nil {
			log.Fatalf("Failed to create config directory: %s", err)
		}

		cwd, err := os.Getwd()
		if err != nil {
			log.Fatal(err)
		}
		appNameSlug := strings.ToLower(filepath.Base(cwd))
		en := cases.Title(language.English)
		appName := en.String(appNameSlug)

		tmpl := newTempl(map[string]interface{}{
			"AppName":     appName,
			"AppNameSlug": appNameSlug,
			"Production":  cn == "prod",
		})

		configFile := filepath.Join(cp, cn+".yml")
		v, err := tmpl.get(cn + ".yml")
		if err != nil {
			log.Fatalf("Failed to generate default config: %s", err)
		}
		if err := os.WriteFile(configFile, v, 0o600); err != nil {
			log.Fatalf("Failed to write default config: %s", err)
		}
		log.Infof("Created default config: %s", configFile)
	}

	if conf, err = serv.ReadInConfig(path.Join(cp, cn)); err != nil {
		log.Fatal(err)
	}
}

// setupOptional reads the config file when the config directory exists and
// falls back to the defaults otherwise. Commands that only convert files
// should not create a config directory.
func setupOptional(cpath string) error {
	if conf != nil {
		return nil
	}

	if _, err := os.Stat(cpath); err == nil {
		setup(cpath)
		return nil
	}

	var err error
	conf, err = serv.NewConfig("", "yaml")
	return err
}

// newBridge creates a converter from the loaded config
func newBridge() (*core.Bridge, error) {
	zlog := newLoggerWithOutput(false, zapcore.Lock(os.Stderr))
	return core.New(&conf.Core, core.OptionSetLogger(zlog))
}

// newLogger creates a new logger
func newLogger(json bool) *zap.Logger {
	return newLoggerWithOutput(json, os.Stdout)
}

// newLoggerWithOutput creates a new logger with a custom output
func newLoggerWithOutput(json bool, output zapcore.WriteSyncer) *zap.Logger {
	econf := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var core zapcore.Core

	if json {
		core = zapcore.NewCore(zapcore.NewJSONEncoder(econf), output, zap.InfoLevel)
	} else {
		econf.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(econf), output, zap.InfoLevel)
	}
	return zap.New(core)
}
