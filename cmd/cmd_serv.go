package main

import (
	"fmt"
	"os"

	"github.com/dosco/sqlbridge/serv"
	"github.com/spf13/cobra"
)

// ANSI color codes
const (
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorReset   = "\033[0m"
)

// printBanner prints the banner on startup
func printBanner() {
	// Respect NO_COLOR environment variable for CI environments
	noColor := os.Getenv("NO_COLOR") != ""

	cyan := colorCyan
	magenta := colorMagenta
	reset := colorReset

	if noColor {
		cyan = ""
		magenta = ""
		reset = ""
	}

	fmt.Printf("\n  %ssql%s%sbridge%s  %s\n\n", cyan, reset, magenta, reset, BuildDetails())
}

// servCmd is the cobra CLI command for the serve subcommand
func servCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"serv"},
		Short:   "Run the sqlbridge HTTP service",
		Run:     cmdServ,
	}
	return c
}

// cmdServ is the handler for the serve subcommand
func cmdServ(*cobra.Command, []string) {
	printBanner()
	setup(cpath)

	sb, err := serv.NewService(conf)
	if err != nil {
		log.Fatalf("%s", err)
	}

	if err := sb.Start(); err != nil {
		log.Fatalf("%s", err)
	}
}
