package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chainbench",
		Short: "Chainbench - measure which blockchain LLMs pick by default",
		Long: `Chainbench sends chain-agnostic building prompts to LLMs and records which
blockchain each response commits to.

It collects responses, classifies the ecosystem, network, behavior and
completeness of each one, and reports the results as grids, distributions
and run-to-run comparisons.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCollectCommand())
	cmd.AddCommand(newClassifyCommand())
	cmd.AddCommand(newReclassifyCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newServeCommand())

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}
