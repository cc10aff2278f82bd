package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dosco/sqlbridge/core"
	"github.com/dosco/sqlbridge/serv"
	"github.com/spf13/cobra"
)

var analyzeJSON bool

// analyzeCmd is the cobra CLI command for the analyze subcommand
func analyzeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Show which constructs a script uses and how each statement would be converted",
		Args:  cobra.MaximumNArgs(1),
		RunE:  cmdAnalyze,
	}
	c.Flags().BoolVar(&analyzeJSON, "json", false, "print the analysis as JSON")
	c.Flags().StringVar(&convServer, "server", "", "analyze on a running sqlbridge service at this URL")
	return c
}

// cmdAnalyze is the handler for the analyze subcommand
func cmdAnalyze(cmd *cobra.Command, args []string) error {
	src := "-"
	if len(args) != 0 {
		src = args[0]
	}

	script, err := readScript(cmd, src)
	if err != nil {
		return err
	}

	var a core.Analysis

	if convServer != "" {
		res, err := serv.NewClient(convServer, remoteTimeout).
			Analyze(context.Background(), serv.SQLRequest{SQL: script})
		if err != nil {
			return err
		}
		a = res.Analysis
	} else {
		if err := setupOptional(cpath); err != nil {
			return err
		}
		sb, err := newBridge()
		if err != nil {
			return err
		}
		a = sb.Analyze(script)
	}

	out := cmd.OutOrStdout()

	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	fmt.Fprintf(out, "Statements: %d\nLines:      %d\n", a.Statements, a.Lines)
	if a.Procedural {
		fmt.Fprintln(out, "Procedural: yes")
	}
	if names := a.Features.Names(); len(names) != 0 {
		fmt.Fprintf(out, "Features:   %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tPATH\tFEATURES")
	for _, it := range a.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.Index+1, it.Kind, it.Strategy,
			strings.Join(it.Features.Names(), ", "))
	}
	return tw.Flush()
}
