package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nodeflow/internal/config"
)

func configCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default config file if none exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.EnsureExists(cfgPath); err != nil {
					return err
				}
				Good.Fprintf(cmd.OutOrStdout(), "  config: %s\n", cfgPath)
				return nil
			},
		},
	)
	return c
}
