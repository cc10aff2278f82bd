package main

import (
	"fmt"

	"github.com/dosco/sqlbridge/serv"
	"github.com/spf13/cobra"
)

// configCmd groups the config subcommands
func configCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect the sqlbridge configuration",
	}

	c.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := serv.ConfigSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective converter settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupOptional(cpath); err != nil {
				return err
			}
			sb, err := newBridge()
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), sb.Config())
		},
	})

	return c
}
