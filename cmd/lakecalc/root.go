package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lakecalc",
		Short: "lakecalc - toric IOL recommendation engine",
		Long: `lakecalc computes toric IOL recommendations from ocular biometry.

It combines anterior keratometry, surgically induced astigmatism and an
empirical posterior cornea model into a total astigmatism vector, selects
the best toric power from a lens catalog, and applies an orientation-aware
clinical policy to decide between toric, borderline and non-toric.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRecommendCommand())
	cmd.AddCommand(newPoliciesCommand())
	cmd.AddCommand(newCatalogCommand())
	cmd.AddCommand(newServeCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
