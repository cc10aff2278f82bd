package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dosco/sqlbridge/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var dialectsYAML bool

// dialectsCmd is the cobra CLI command for the dialects subcommand
func dialectsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "dialects [name...]",
		Short: "List the supported dialects",
		Long: "List the supported dialects. With --yaml the rewrite rules of the named\n" +
			"dialects, or all of them, are printed as YAML.",
		RunE: cmdDialects,
	}
	c.Flags().BoolVar(&dialectsYAML, "yaml", false, "print the rewrite rules as YAML")
	return c
}

// cmdDialects is the handler for the dialects subcommand
func cmdDialects(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if dialectsYAML {
		b, err := core.DialectsYAML(args...)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIALECT\tDESCRIPTION")
	for _, d := range core.SupportedDialects() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.DisplayName, d.Description)
	}
	return tw.Flush()
}

// printYAML writes v to out as YAML
func printYAML(out io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
