package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chainbench/chainbench/internal/config"
	"github.com/chainbench/chainbench/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var (
		interactive bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a chainbench.yaml",
		Long: `Write a chainbench.yaml with the default prompts, models, paths and
classifier settings.

When stdin is a terminal, a form lets you narrow the models and prompt
categories and pick the run count and classifier first. Use --interactive to
force the form when input is piped.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return initCommandE(cmd, dir, interactive || stdinIsTerminal(cmd), force)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask before writing, even when input is not a terminal")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing chainbench.yaml")

	return cmd
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func initCommandE(cmd *cobra.Command, dir string, interactive, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, config.FileName)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "%s already exists (use --force to overwrite)\n", path) //nolint:errcheck
		return nil
	}

	cfg := config.New()
	if interactive {
		var err error
		cfg, err = wizard.Run(cmd.InOrStdin(), out, cfg)
		if err != nil {
			return err
		}
	}

	if err := config.Write(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s\n", path)                                                                    //nolint:errcheck
	fmt.Fprintf(out, "  %d prompt(s), %d model(s), %d run(s)\n", len(cfg.Prompts), len(cfg.Models), cfg.Runs) //nolint:errcheck
	fmt.Fprintln(out, "\nSet ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY, then run: chainbench run")  //nolint:errcheck
	return nil
}
