// Package cmd implements the thermal command line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the thermal command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "thermal",
		Short:        "Simulate thermalization of hard-core bosons on a 2D lattice split into sub-lattices A and B.",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newRunCmd(), newHistoryCmd(), newConfigCmd())
	return rootCmd
}

// Execute runs the CLI and exits with a non-zero status on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
