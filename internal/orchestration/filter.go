package orchestration

import (
	"fmt"
	"path/filepath"

	"github.com/chainbench/chainbench/internal/models"
)

// FilterModels returns the models whose ID, DisplayName or Provider matches at
// least one of the given glob patterns. An empty patterns slice returns all
// models unchanged.
func FilterModels(ms []models.ModelConfig, patterns []string) ([]models.ModelConfig, error) {
	return filterByGlob(ms, patterns, func(m models.ModelConfig) []string {
		return []string{m.ID, m.DisplayName, m.Provider}
	})
}

// FilterPrompts returns the prompts whose ID or Category matches at least one
// of the given glob patterns.
func FilterPrompts(ps []models.Prompt, patterns []string) ([]models.Prompt, error) {
	return filterByGlob(ps, patterns, func(p models.Prompt) []string {
		return []string{p.ID, p.Category}
	})
}

func filterByGlob[T any](items []T, patterns []string, fields func(T) []string) ([]T, error) {
	if len(patterns) == 0 {
		return items, nil
	}

	var matched []T
	for _, item := range items {
		ok, err := matchesAny(fields(item), patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// matchesAny reports whether any field matches any pattern.
func matchesAny(fields, patterns []string) (bool, error) {
	for _, p := range patterns {
		for _, f := range fields {
			ok, err := filepath.Match(p, f)
			if err != nil {
				return false, fmt.Errorf("invalid filter pattern %q: %w", p, err)
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}
