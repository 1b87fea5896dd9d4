package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainbench/chainbench/internal/analysis"
	"github.com/chainbench/chainbench/internal/config"
	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/orchestration"
	"github.com/chainbench/chainbench/internal/providers"
	"github.com/chainbench/chainbench/internal/reporting"
	"github.com/chainbench/chainbench/internal/storage"
)

func newRunCommand() *cobra.Command {
	var (
		sel         selection
		eng         engineFlags
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full benchmark",
		Long: `Send every prompt to every model, classify each response as it arrives and
write the results grid and reports.

Providers run in parallel; calls to one provider are sequential and paced.
Models whose provider has no API key are skipped. Every result is saved to a
new run directory under the results path as soon as it is classified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommandE(cmd, &sel, &eng, metricsFile)
		},
	}

	sel.addFlags(cmd)
	eng.addFlags(cmd, false)
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")

	return cmd
}

func runCommandE(cmd *cobra.Command, sel *selection, eng *engineFlags, metricsFile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	o, err := sel.options(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if o.DryRun {
		printPlan(out, orchestration.PlanFor(o), newRegistry())
		return nil
	}

	co, err := eng.options(cfg)
	if err != nil {
		return err
	}
	engine, err := startEngine(out, co)
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	dir, err := storage.CreateOutputDir(cfg.Paths.Results, o.WebSearch, time.Now())
	if err != nil {
		return err
	}
	store, err := storage.Open(dir)
	if err != nil {
		return err
	}

	m := newMetrics(metricsFile)
	runner := newRunner(cfg, m,
		orchestration.WithAnalyzer(analysis.New(engine.Network)),
		orchestration.WithStore(store),
	)
	runner.OnProgress(progressPrinter(out))

	results, err := runner.Run(cmd.Context(), o)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No results collected.") //nolint:errcheck
		return writeMetrics(m, metricsFile)
	}

	g := grid.Build(results)
	reporting.NewConsole(out).PrintGrid(g)

	paths, err := reporting.Save(dir, g, results, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Results saved to: %s\n", dir)           //nolint:errcheck
	fmt.Fprintf(out, "Markdown report: %s\n", paths.Markdown) //nolint:errcheck
	fmt.Fprintf(out, "HTML report: %s\n", paths.HTML)         //nolint:errcheck
	fmt.Fprintf(out, "CSV report: %s\n", paths.CSV)           //nolint:errcheck

	return writeMetrics(m, metricsFile)
}

func newCollectCommand() *cobra.Command {
	var (
		sel         selection
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect raw responses without classifying them",
		Long: `Send every prompt to every model and save the raw responses for a later
classify pass. Nothing is classified while collecting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return collectCommandE(cmd, &sel, metricsFile)
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")

	return cmd
}

func collectCommandE(cmd *cobra.Command, sel *selection, metricsFile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	o, err := sel.options(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if o.DryRun {
		printPlan(out, orchestration.PlanFor(o), newRegistry())
		return nil
	}

	dir, err := storage.CreateOutputDir(cfg.Paths.Responses, o.WebSearch, time.Now())
	if err != nil {
		return err
	}
	store, err := storage.Open(dir)
	if err != nil {
		return err
	}

	m := newMetrics(metricsFile)
	runner := newRunner(cfg, m, orchestration.WithStore(store))
	runner.OnProgress(progressPrinter(out))

	responses, err := runner.Collect(cmd.Context(), o)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Collected %d response(s)\n", len(responses)) //nolint:errcheck
	fmt.Fprintf(out, "Responses saved to: %s\n", dir)              //nolint:errcheck
	return writeMetrics(m, metricsFile)
}

func newRegistry() *providers.Registry {
	return providers.NewRegistry(config.APIKeys(os.Getenv))
}

func newRunner(cfg *config.Config, m *orchestration.Metrics, opts ...orchestration.RunnerOption) *orchestration.Runner {
	opts = append(opts,
		orchestration.WithPacer(providers.NewPacer(cfg.RateLimits)),
		orchestration.WithMetrics(m),
	)
	return orchestration.NewRunner(newRegistry(), opts...)
}

// printPlan lists what a run would send. Models whose provider cannot be
// created are marked, since the run skips them.
func printPlan(w io.Writer, p orchestration.Plan, reg *providers.Registry) {
	fmt.Fprintf(w, "Dry run: %d call(s) = %d prompt(s) x %d model(s) x %d run(s)\n", //nolint:errcheck
		p.TotalCalls, len(p.Prompts), len(p.Models), p.Runs)
	fmt.Fprintf(w, "Web search: %t\n\nModels:\n", p.WebSearch) //nolint:errcheck
	for _, m := range p.Models {
		skipped := ""
		if !reg.Available(m.Provider) {
			skipped = " [skipped: no API key]"
		}
		fmt.Fprintf(w, "  - %s (%s, %s)%s\n", m.DisplayName, m.Provider, m.Tier, skipped) //nolint:errcheck
	}
	fmt.Fprintln(w, "\nPrompts:") //nolint:errcheck
	for _, pr := range p.Prompts {
		fmt.Fprintf(w, "  - %s [%s]\n", pr.ID, pr.Category) //nolint:errcheck
	}
	fmt.Fprintf(w, "\nEstimated cost: $%.2f-$%.2f\n", p.MinCost, p.MaxCost) //nolint:errcheck
}
