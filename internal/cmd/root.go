package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for nc2csv
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nc2csv",
		Short: "Batch NetCDF to CSV conversion",
		Long: `nc2csv converts NetCDF files into tabular outputs in batch.

Given files or directories and filename patterns, it resolves the
matching sources, opens each with the preferred engine (falling back
per file to the other engines), exports every numeric variable to CSV,
and reports a per-group summary of successes and failures.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewConvertCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
