package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "infodemic",
		Short: "Agent-based claim-contagion simulator",
		Long: `infodemic simulates the spread of competing true and false claims
through a synthetic town connected by a multi-layer social network.

Each run generates a population, seeds the claims, and plays out daily
exposure, sharing, moderation, and belief dynamics, persisting metrics
and belief snapshots for analysis.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (info, debug, trace); overrides the config")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newValidateCmd(),
		newPresetsCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
