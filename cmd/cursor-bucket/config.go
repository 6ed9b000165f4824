package main

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as TOML, after defaults, the config
file and the root directory have been applied.

Examples:
  cursor-bucket config
  cursor-bucket --root ~/bucket config > cursor-bucket.toml`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Encode(stdout)
	},
}
