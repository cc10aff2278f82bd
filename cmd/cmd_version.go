package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd is the cobra CLI command for the version subcommand
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BuildDetails())
		},
	}
}

// BuildDetails describes the build of the binary
func BuildDetails() string {
	ver, c, d := version, commit, date

	if ver == "" {
		ver = "not-set"
	}
	if c == "" {
		c = "not-set"
	}
	if d == "" {
		d = "not-set"
	}

	return fmt.Sprintf(
		"sqlbridge %s (commit %s, built %s, %s)\nConvert SQL scripts between database dialects",
		ver, c, d, runtime.Version())
}
