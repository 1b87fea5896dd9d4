// Package wizard collects chainbench.yaml settings with an interactive form.
package wizard

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/chainbench/chainbench/internal/classifier"
	"github.com/chainbench/chainbench/internal/config"
	"github.com/chainbench/chainbench/internal/models"
)

const maxRuns = 50

// Answers holds the choices made in the form.
type Answers struct {
	Models     []string
	Categories []string
	Runs       string
	Engine     string
	WebSearch  bool
}

// Defaults pre-selects everything in base.
func Defaults(base *config.Config) Answers {
	a := Answers{
		Runs:   strconv.Itoa(base.Runs),
		Engine: base.Classifier.Engine,
	}
	for _, m := range base.Models {
		a.Models = append(a.Models, m.ID)
	}
	a.Categories = categories(base.Prompts)
	a.WebSearch = base.WebSearchEnabled()
	return a
}

// Run shows the form on out, reading from in, and returns base narrowed to
// the selection.
func Run(in io.Reader, out io.Writer, base *config.Config) (*config.Config, error) {
	a := Defaults(base)

	modelOpts := make([]huh.Option[string], 0, len(base.Models))
	for _, m := range base.Models {
		label := fmt.Sprintf("%s (%s, %s)", m.DisplayName, m.Provider, m.Tier)
		modelOpts = append(modelOpts, huh.NewOption(label, m.ID).Selected(true))
	}
	categoryOpts := make([]huh.Option[string], 0, len(a.Categories))
	for _, c := range a.Categories {
		categoryOpts = append(categoryOpts, huh.NewOption(c, c).Selected(true))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Models").
				Description("Which models should be benchmarked?").
				Options(modelOpts...).
				Value(&a.Models).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("select at least one model")
					}
					return nil
				}),
			huh.NewMultiSelect[string]().
				Title("Prompt categories").
				Options(categoryOpts...).
				Value(&a.Categories).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("select at least one category")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Runs").
				Description("How many times each prompt is sent to each model").
				Value(&a.Runs).
				Validate(func(s string) error {
					_, err := parseRuns(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Classifier").
				Options(
					huh.NewOption("pattern (offline, deterministic)", classifier.EnginePattern),
					huh.NewOption("claude CLI", classifier.EngineClaude),
					huh.NewOption("GitHub Copilot", classifier.EngineCopilot),
				).
				Value(&a.Engine),
			huh.NewConfirm().
				Title("Enable web search where supported?").
				Value(&a.WebSearch),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Accessible mode reads plain lines, which works for piped input.
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}
	return Apply(base, a)
}

// Apply narrows a copy of base to the answers and validates the result.
func Apply(base *config.Config, a Answers) (*config.Config, error) {
	runs, err := parseRuns(a.Runs)
	if err != nil {
		return nil, err
	}

	cfg := *base
	cfg.Runs = runs
	cfg.Classifier.Engine = a.Engine
	cfg.WebSearch = &a.WebSearch

	cfg.Models = nil
	for _, m := range base.Models {
		if slices.Contains(a.Models, m.ID) {
			cfg.Models = append(cfg.Models, m)
		}
	}
	cfg.Prompts = nil
	for _, p := range base.Prompts {
		if slices.Contains(a.Categories, p.Category) {
			cfg.Prompts = append(cfg.Prompts, p)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseRuns(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > maxRuns {
		return 0, fmt.Errorf("runs must be a number between 1 and %d", maxRuns)
	}
	return n, nil
}

// categories lists prompt categories in first-seen order.
func categories(ps []models.Prompt) []string {
	var out []string
	for _, p := range ps {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}
