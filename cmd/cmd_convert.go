package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dosco/sqlbridge/core"
	"github.com/dosco/sqlbridge/serv"
	"github.com/fsnotify/fsnotify"
	"github.com/gobuffalo/flect"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const remoteTimeout = 60 * time.Second

var (
	convFrom    string
	convTo      []string
	convOut     string
	convOutDir  string
	convReport  string
	convWatch   bool
	convServer  string
	convWorkers int
	convPretty  bool
)

// file system used to read scripts and write results
var appFS = afero.NewOsFs()

// convertCmd is the cobra CLI command for the convert subcommand
func convertCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Convert a SQL script to another dialect",
		Long: "Convert a SQL script to one or more dialects. The script is read from the\n" +
			"file or from stdin, the result written to stdout unless --out or --out-dir\n" +
			"is set.",
		Example: "  sqlbridge convert schema.sql --from mysql --to postgres\n" +
			"  cat schema.sql | sqlbridge convert --to bigquery,snowflake --out-dir out",
		Args: cobra.MaximumNArgs(1),
		RunE: cmdConvert,
	}

	c.Flags().StringVar(&convFrom, "from", "", "dialect of the input script (default from config, mysql)")
	c.Flags().StringSliceVar(&convTo, "to", []string{"postgres"}, "target dialects")
	c.Flags().StringVarP(&convOut, "out", "o", "", "write the converted script to this file")
	c.Flags().StringVar(&convOutDir, "out-dir", "", "write one file per target dialect to this directory")
	c.Flags().StringVar(&convReport, "report", "text", "report printed to stderr: text, json or none")
	c.Flags().BoolVarP(&convWatch, "watch", "w", false, "convert again whenever the input file changes")
	c.Flags().StringVar(&convServer, "server", "", "convert on a running sqlbridge service at this URL")
	c.Flags().IntVar(&convWorkers, "workers", 0, "statements converted in parallel (default from config)")
	c.Flags().BoolVar(&convPretty, "pretty", false, "one column per line in CREATE TABLE, one clause per line elsewhere")

	return c
}

// conversion is the outcome of converting a script to one dialect, whether
// converted locally or by a service
type conversion struct {
	Script   string        `json:"script"`
	From     string        `json:"from_dialect"`
	To       string        `json:"to_dialect"`
	Total    int           `json:"total_statements"`
	Methods  core.Tally    `json:"methods_used"`
	Primary  core.Strategy `json:"primary_method"`
	Features []string      `json:"features_detected"`
	Warnings []string      `json:"warnings"`
	Note     string        `json:"note"`
}

// converter converts a script locally or on a service
type converter interface {
	convert(ctx context.Context, script, from, to string) (*conversion, error)
}

type localConverter struct {
	sb *core.Bridge
}

func (c localConverter) convert(ctx context.Context, script, from, to string) (*conversion, error) {
	res, err := c.sb.Convert(ctx, script, from, to)
	if err != nil {
		return nil, err
	}
	return &conversion{
		Script:   res.Script,
		From:     res.From,
		To:       res.To,
		Total:    res.Total,
		Methods:  res.Tally,
		Primary:  res.Primary,
		Features: res.Features.Names(),
		Warnings: res.Warnings,
		Note:     res.Note,
	}, nil
}

type remoteConverter struct {
	client *serv.Client
}

func (c remoteConverter) convert(ctx context.Context, script, from, to string) (*conversion, error) {
	res, err := c.client.Transpile(ctx, serv.SQLRequest{SQL: script, From: from, To: to})
	if err != nil {
		return nil, err
	}
	return &conversion{
		Script:   strings.Join(res.Transpiled, "\n\n"),
		From:     res.From,
		To:       res.To,
		Total:    res.Total,
		Methods:  res.Methods,
		Primary:  res.Primary,
		Features: res.Features.Names(),
		Warnings: res.Warnings,
		Note:     res.Note,
	}, nil
}

// cmdConvert is the handler for the convert subcommand
func cmdConvert(cmd *cobra.Command, args []string) error {
	src := "-"
	if len(args) != 0 {
		src = args[0]
	}

	if err := checkConvertFlags(src); err != nil {
		return err
	}

	c, err := newConverter(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runConvert(ctx, cmd, c, src); err != nil {
		return err
	}

	if convWatch {
		return watchConvert(ctx, cmd, c, src)
	}
	return nil
}

func checkConvertFlags(src string) error {
	if len(convTo) == 0 {
		return errors.New("no target dialect, set --to")
	}
	if convOut != "" && convOutDir != "" {
		return errors.New("--out and --out-dir cannot be used together")
	}
	if convOut != "" && len(convTo) > 1 {
		return errors.New("--out takes a single target dialect, use --out-dir for several")
	}
	if convWatch && src == "-" {
		return errors.New("--watch needs an input file")
	}
	switch convReport {
	case "text", "json", "none":
	default:
		return fmt.Errorf("unknown report format %q: use text, json or none", convReport)
	}
	return nil
}

func newConverter(cmd *cobra.Command) (converter, error) {
	if convServer != "" {
		return remoteConverter{client: serv.NewClient(convServer, remoteTimeout)}, nil
	}

	if err := setupOptional(cpath); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("workers") {
		conf.Workers = convWorkers
	}
	if cmd.Flags().Changed("pretty") {
		conf.Pretty = convPretty
	}

	sb, err := newBridge()
	if err != nil {
		return nil, err
	}
	return localConverter{sb: sb}, nil
}

// runConvert converts src to every target dialect and writes the results
func runConvert(ctx context.Context, cmd *cobra.Command, c converter, src string) error {
	script, err := readScript(cmd, src)
	if err != nil {
		return err
	}

	for i, to := range convTo {
		res, err := c.convert(ctx, script, convFrom, strings.TrimSpace(to))
		if err != nil {
			return err
		}

		dst, err := writeResult(cmd, src, res, i)
		if err != nil {
			return err
		}

		if err := printReport(cmd.ErrOrStderr(), res, dst); err != nil {
			return err
		}
	}
	return nil
}

// readScript reads the script from a file, or stdin for "-"
func readScript(cmd *cobra.Command, src string) (string, error) {
	var b []byte
	var err error

	if src == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = afero.ReadFile(appFS, src)
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", src)
	}
	return string(b), nil
}

// writeResult writes the converted script where the flags say and returns
// the destination, empty for stdout
func writeResult(cmd *cobra.Command, src string, res *conversion, i int) (string, error) {
	var dst string

	switch {
	case convOut != "":
		dst = convOut

	case convOutDir != "":
		if err := appFS.MkdirAll(convOutDir, 0o755); err != nil {
			return "", err
		}
		dst = filepath.Join(convOutDir, outputName(src, res.To))
	}

	text := res.Script + "\n"

	if dst == "" {
		out := cmd.OutOrStdout()
		if len(convTo) > 1 {
			if i != 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "-- %s\n", displayName(res.To))
		}
		_, err := io.WriteString(out, text)
		return "", err
	}

	if err := afero.WriteFile(appFS, dst, []byte(text), 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", dst)
	}
	return dst, nil
}

// outputName names the file holding the conversion of src to a dialect,
// for example schema.sql to PostgreSQL is schema.postgresql.sql
func outputName(src, to string) string {
	base := "script"
	if src != "-" {
		base = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	return base + "." + slug.Make(displayName(to)) + ".sql"
}

func displayName(name string) string {
	for _, d := range core.SupportedDialects() {
		if d.Name == name {
			return d.DisplayName
		}
	}
	return name
}

// printReport writes the conversion summary in the --report format
func printReport(out io.Writer, res *conversion, dst string) error {
	switch convReport {
	case "none":
		return nil

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		r := *res
		r.Script = ""
		return enc.Encode(r)
	}

	title := cases.Title(language.English)

	fmt.Fprintf(out, "%s -> %s: %s, %d simple, %d complex, mostly %s\n",
		displayName(res.From), displayName(res.To), count(res.Total, "statement"),
		res.Methods.Simple, res.Methods.Complex, title.String(string(res.Primary)))

	if dst != "" {
		fmt.Fprintf(out, "  written to %s\n", dst)
	}
	if len(res.Features) != 0 {
		fmt.Fprintf(out, "  features: %s\n", strings.Join(res.Features, ", "))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	if res.Note != "" {
		fmt.Fprintf(out, "  note: %s\n", res.Note)
	}
	return nil
}

// count formats n with the singular or plural of word
func count(n int, word string) string {
	if n != 1 {
		word = flect.Pluralize(word)
	}
	return fmt.Sprintf("%d %s", n, word)
}

// watchConvert converts src again whenever it changes until ctx is done
func watchConvert(ctx context.Context, cmd *cobra.Command, c converter, src string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// watch the directory so editors that replace the file are handled
	if err := watcher.Add(filepath.Dir(src)); err != nil {
		return err
	}
	log.Infof("watching %s for changes", src)

	var timer *time.Timer
	changed := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(src) ||
				!(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			// editors often write a file in several steps
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

		case <-changed:
			if err := runConvert(ctx, cmd, c, src); err != nil {
				log.Errorf("%s", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("watcher: %s", err)
		}
	}
}
