package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chainbench/chainbench/internal/export"
	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/reporting"
	"github.com/chainbench/chainbench/internal/statistics"
	"github.com/chainbench/chainbench/internal/storage"
)

type compareOptions struct {
	field      string
	tools      bool
	format     string
	confidence float64
	seed       int64
}

func newCompareCommand() *cobra.Command {
	var opts compareOptions

	cmd := &cobra.Command{
		Use:   "compare <base> <alt>",
		Short: "Compare label shares between two runs",
		Long: `Compare how often each label was chosen in two runs, for example standard
against web search.

Each side is a results directory, an exported run file, or a run id from the
dashboard index. Shifts are percentage points of each side's total, and a
bootstrap confidence interval marks the shifts that are significant.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compareCommandE(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.field, "field", string(statistics.FieldEcosystem), "Label to compare: ecosystem, network or behavior")
	cmd.Flags().BoolVar(&opts.tools, "tools", false, "Compare developer tools named in detection evidence")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().Float64Var(&opts.confidence, "confidence", 0.95, "Confidence level of the bootstrap interval")
	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "Bootstrap seed (negative for a random seed)")

	return cmd
}

type compareReport struct {
	Base  string             `json:"base"`
	Alt   string             `json:"alt"`
	Field string             `json:"field"`
	Rows  []statistics.Shift `json:"rows"`
}

func compareCommandE(cmd *cobra.Command, baseArg, altArg string, opts compareOptions) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", opts.format)
	}
	if opts.confidence <= 0 || opts.confidence >= 1 {
		return fmt.Errorf("--confidence must be between 0 and 1, got %g", opts.confidence)
	}
	field, err := statistics.ParseField(opts.field)
	if err != nil {
		return err
	}
	label := string(field)
	if opts.tools {
		label = "tools"
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := loadDistribution(baseArg, cfg.Paths.Dashboard, field, opts.tools)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", baseArg, err)
	}
	alt, err := loadDistribution(altArg, cfg.Paths.Dashboard, field, opts.tools)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", altArg, err)
	}

	report := buildCompareReport(baseArg, altArg, label, base, alt, opts)
	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printCompareReport(out, report, opts.confidence)
	return nil
}

func buildCompareReport(baseArg, altArg, label string, base, alt models.Tally, opts compareOptions) compareReport {
	return compareReport{
		Base:  baseArg,
		Alt:   altArg,
		Field: label,
		Rows:  statistics.CompareWithCI(base, alt, opts.confidence, opts.seed),
	}
}

func printCompareReport(w io.Writer, report compareReport, confidence float64) {
	rows := make([]statistics.ComparisonRow, len(report.Rows))
	for i, r := range report.Rows {
		rows[i] = r.ComparisonRow
	}
	title := fmt.Sprintf("%s: %s vs %s", report.Field, report.Base, report.Alt)
	reporting.NewConsole(w).PrintComparison(title, rows)

	fmt.Fprintf(w, "Significant shifts (%.0f%% CI):\n", confidence*100) //nolint:errcheck
	found := false
	for _, r := range report.Rows {
		if !r.Significant {
			continue
		}
		found = true
		fmt.Fprintf(w, "  %s: %+.1f pp [%+.1f, %+.1f]\n", r.Label, r.DeltaPp, r.CI.Lower, r.CI.Upper) //nolint:errcheck
	}
	if !found {
		fmt.Fprintln(w, "  none") //nolint:errcheck
	}
}

// loadDistribution reads one side of a comparison from a results directory,
// an exported run file or a run id listed in the dashboard index.
func loadDistribution(arg, dashboard string, field statistics.Field, tools bool) (models.Tally, error) {
	info, err := os.Stat(arg)
	if err == nil && info.IsDir() {
		results, err := storage.LoadResults(arg)
		if err != nil {
			return models.Tally{}, err
		}
		if tools {
			return statistics.ToolDistribution(results), nil
		}
		return statistics.OverallDistribution(grid.Build(results), field), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.Tally{}, err
	}
	if tools {
		return models.Tally{}, fmt.Errorf("tool comparison needs a results directory")
	}

	path := arg
	if err != nil {
		entry, ok := export.FindRun(export.LoadIndex(dashboard), arg)
		if !ok {
			return models.Tally{}, fmt.Errorf("not a results directory, export file or run id in %s", filepath.Join(dashboard, export.IndexFile))
		}
		path = filepath.Join(dashboard, entry.Filename)
	}
	data, err := export.LoadRun(path)
	if err != nil {
		return models.Tally{}, err
	}
	return data.Distribution(field), nil
}
