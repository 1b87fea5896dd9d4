package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainbench/chainbench/internal/export"
	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/reporting"
	"github.com/chainbench/chainbench/internal/storage"
)

func newReportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <results-dir> [<results-dir> ...]",
		Short: "Print the grid and write reports for saved results",
		Long: `Load results from one or more run directories, print the results grid and
write Markdown, HTML and CSV reports into the first directory.

With --format json the dashboard payload is printed instead and no files are
written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportCommandE(cmd, args, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")

	return cmd
}

func reportCommandE(cmd *cobra.Command, dirs []string, format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", format)
	}
	results, err := storage.LoadResults(dirs...)
	if err != nil {
		return fmt.Errorf("no results found in %s: %w", strings.Join(dirs, ", "), err)
	}
	g := grid.Build(results)
	out := cmd.OutOrStdout()

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(export.BuildRunData(results, g, time.Now()))
	}

	fmt.Fprintf(out, "Loaded %d results from %d dir(s)\n", len(results), len(dirs)) //nolint:errcheck
	reporting.NewConsole(out).PrintGrid(g)

	paths, err := reporting.Save(dirs[0], g, results, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Markdown report: %s\n", paths.Markdown) //nolint:errcheck
	fmt.Fprintf(out, "HTML report: %s\n", paths.HTML)         //nolint:errcheck
	fmt.Fprintf(out, "CSV report: %s\n", paths.CSV)           //nolint:errcheck
	return nil
}

func newExportCommand() *cobra.Command {
	var (
		outDir string
		tools  bool
		gzip   bool
	)

	cmd := &cobra.Command{
		Use:   "export <results-dir> [<results-dir> ...]",
		Short: "Export saved results as dashboard data",
		Long: `Combine results from one or more run directories into a dashboard payload.

Writes run-<timestamp>.json and latest.json, and records the run in runs.json
(newest first). With --tools, tool classification results are exported under
tools/ instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportCommandE(cmd, args, outDir, tools, gzip)
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Dashboard data directory (default from chainbench.yaml)")
	cmd.Flags().BoolVar(&tools, "tools", false, "Export tool classification results")
	cmd.Flags().BoolVar(&gzip, "gzip", false, "Also write gzip copies of exported files")

	return cmd
}

func exportCommandE(cmd *cobra.Command, dirs []string, outDir string, tools, gzip bool) error {
	if outDir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		outDir = cfg.Paths.Dashboard
	}
	exporter := export.NewExporter(outDir, gzip)
	out := cmd.OutOrStdout()

	var (
		path string
		n    int
	)
	if tools {
		results, err := storage.LoadToolResults(dirs...)
		if err != nil {
			return fmt.Errorf("no tool results found in %s: %w", strings.Join(dirs, ", "), err)
		}
		n = len(results)
		if path, err = exporter.ExportTools(results); err != nil {
			return err
		}
	} else {
		results, err := storage.LoadResults(dirs...)
		if err != nil {
			return fmt.Errorf("no results found in %s: %w", strings.Join(dirs, ", "), err)
		}
		n = len(results)
		if path, err = exporter.Export(results, grid.Build(results)); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Loaded %d results from %d dir(s)\n", n, len(dirs)) //nolint:errcheck
	fmt.Fprintf(out, "Exported dashboard data: %s\n", path)              //nolint:errcheck
	return nil
}
