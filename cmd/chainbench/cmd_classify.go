package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainbench/chainbench/internal/analysis"
	"github.com/chainbench/chainbench/internal/config"
	"github.com/chainbench/chainbench/internal/detection"
	"github.com/chainbench/chainbench/internal/export"
	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/orchestration"
	"github.com/chainbench/chainbench/internal/reporting"
	"github.com/chainbench/chainbench/internal/storage"
)

// exportFlags control the dashboard export after classification.
type exportFlags struct {
	skip bool
	gzip bool
}

func (f *exportFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.skip, "no-export", false, "Do not export dashboard data")
	cmd.Flags().BoolVar(&f.gzip, "gzip", false, "Also write gzip copies of exported files")
}

func newClassifyCommand() *cobra.Command {
	var (
		eng         engineFlags
		exp         exportFlags
		tools       bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "classify <responses-dir> [<responses-dir> ...]",
		Short: "Classify collected responses",
		Long: `Classify stored responses in parallel batches and save the results to a new
run directory.

Directories may hold responses.jsonl, results.jsonl (analyses are replaced) or
individual response files. A failing classification never stops the batch:
the response is kept with a "Classification failed" result and the command
exits with status 1.

With --tools, an LLM engine lists the developer tools each response uses
instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyCommandE(cmd, args, &eng, &exp, tools, metricsFile)
		},
	}

	eng.addFlags(cmd, true)
	exp.addFlags(cmd)
	cmd.Flags().BoolVar(&tools, "tools", false, "Extract developer tools instead of chains (needs an LLM engine)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")

	return cmd
}

func classifyCommandE(cmd *cobra.Command, dirs []string, eng *engineFlags, exp *exportFlags, tools bool, metricsFile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	co, err := eng.options(cfg)
	if err != nil {
		return err
	}

	responses, err := storage.LoadResponsesOrResults(dirs...)
	if err != nil {
		return fmt.Errorf("no responses found in %s: %w", strings.Join(dirs, ", "), err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d responses from %d dir(s)\n", len(responses), len(dirs)) //nolint:errcheck

	engine, err := startEngine(out, co)
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	var dir string
	if tools {
		dir, err = storage.CreateToolOutputDir(cfg.Paths.Tools, time.Now())
	} else {
		dir, err = storage.CreateOutputDir(cfg.Paths.Classified, anyWebSearch(responses), time.Now())
	}
	if err != nil {
		return err
	}
	store, err := storage.Open(dir)
	if err != nil {
		return err
	}

	m := newMetrics(metricsFile)
	c := orchestration.NewClassifier(orchestration.ClassifierConfig{
		Engine:      engine,
		Concurrency: co.Concurrency,
		Store:       store,
		Metrics:     m,
	})
	c.OnProgress(progressPrinter(out))
	fmt.Fprintf(out, "Classifying with the %s engine (concurrency: %d)...\n\n", engineName(co), co.Concurrency) //nolint:errcheck

	if tools {
		results, classifyErr := c.ClassifyTools(cmd.Context(), responses)
		if !resultsUsable(classifyErr) {
			return classifyErr
		}
		fmt.Fprintf(out, "\nTool results saved to: %s\n", dir) //nolint:errcheck
		if !exp.skip {
			path, err := export.NewExporter(cfg.Paths.Dashboard, exp.gzip).ExportTools(results)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Dashboard data exported: %s\n", path) //nolint:errcheck
		}
		return errors.Join(writeMetrics(m, metricsFile), classifyErr)
	}

	results, classifyErr := c.Classify(cmd.Context(), responses)
	if !resultsUsable(classifyErr) {
		return classifyErr
	}
	if err := finishClassification(out, cfg, exp, results); err != nil {
		return err
	}
	fmt.Fprintf(out, "Results saved to: %s\n", dir) //nolint:errcheck
	return errors.Join(writeMetrics(m, metricsFile), classifyErr)
}

func newReclassifyCommand() *cobra.Command {
	var (
		eng         engineFlags
		exp         exportFlags
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "reclassify <results-dir> [<results-dir> ...]",
		Short: "Re-run chain detection over existing results",
		Long: `Replace the chain detection of existing results and keep their behavior and
completeness scores. A failed detection keeps the original one.

Updated results are written to a new run directory and exported to the
dashboard.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reclassifyCommandE(cmd, args, &eng, &exp, metricsFile)
		},
	}

	eng.addFlags(cmd, true)
	exp.addFlags(cmd)
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")

	return cmd
}

func reclassifyCommandE(cmd *cobra.Command, dirs []string, eng *engineFlags, exp *exportFlags, metricsFile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	co, err := eng.options(cfg)
	if err != nil {
		return err
	}

	results, err := storage.LoadResults(dirs...)
	if err != nil {
		return fmt.Errorf("no results found in %s: %w", strings.Join(dirs, ", "), err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d results from %d dir(s)\n", len(results), len(dirs)) //nolint:errcheck

	engine, err := startEngine(out, co)
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	raw := make([]models.RawResponse, len(results))
	for i, r := range results {
		raw[i] = r.RawResponse
	}
	dir, err := storage.CreateOutputDir(cfg.Paths.Classified, anyWebSearch(raw), time.Now())
	if err != nil {
		return err
	}
	store, err := storage.Open(dir)
	if err != nil {
		return err
	}

	m := newMetrics(metricsFile)
	c := orchestration.NewClassifier(orchestration.ClassifierConfig{
		Engine:      engine,
		Concurrency: co.Concurrency,
		Store:       store,
		Metrics:     m,
	})
	c.OnProgress(progressPrinter(out))
	fmt.Fprintf(out, "Re-classifying with the %s engine (concurrency: %d)...\n\n", engineName(co), co.Concurrency) //nolint:errcheck

	updated, changed, classifyErr := c.Reclassify(cmd.Context(), results)
	if !resultsUsable(classifyErr) {
		return classifyErr
	}
	fmt.Fprintf(out, "\nRe-classification complete: %d of %d changed\n", changed, len(updated)) //nolint:errcheck

	if err := finishClassification(out, cfg, exp, updated); err != nil {
		return err
	}
	fmt.Fprintf(out, "Results saved to: %s\n", dir) //nolint:errcheck
	return errors.Join(writeMetrics(m, metricsFile), classifyErr)
}

// finishClassification prints the grid and any failed classifications, then
// exports the dashboard data.
func finishClassification(out io.Writer, cfg *config.Config, exp *exportFlags, results []models.BenchmarkResult) error {
	g := grid.Build(results)
	reporting.NewConsole(out).PrintGrid(g)

	failed := 0
	for _, r := range results {
		if analysis.IsFailed(r.Analysis) {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(out, "Classification failed for %d of %d response(s), recorded as %s\n", failed, len(results), detection.ChainAgnostic) //nolint:errcheck
	}
	if exp.skip {
		return nil
	}
	path, err := export.NewExporter(cfg.Paths.Dashboard, exp.gzip).Export(results, g)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Dashboard data exported: %s\n", path) //nolint:errcheck
	return nil
}

// resultsUsable reports whether err still left a complete result set.
func resultsUsable(err error) bool {
	if err == nil {
		return true
	}
	var partial *orchestration.PartialFailureError
	return errors.As(err, &partial)
}

func engineName(o orchestration.ClassifyOptions) string {
	if o.Engine == "" {
		return config.DefaultClassifierEngine
	}
	return o.Engine
}
