package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainbench/chainbench/internal/models"
)

// LoadResults reads analyzed results from run directories. Each directory's
// results.jsonl wins over its individual JSON files. Missing directories are
// skipped with a warning.
func LoadResults(dirs ...string) ([]models.BenchmarkResult, error) {
	var out []models.BenchmarkResult
	for _, dir := range dirs {
		if !dirExists(dir) {
			continue
		}
		path := filepath.Join(dir, ResultsFile)
		if fileExists(path) {
			rs, err := readJSONL[models.BenchmarkResult](path)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
			continue
		}
		err := eachJSONFile(dir, func(name string, data []byte) error {
			var r models.BenchmarkResult
			if err := json.Unmarshal(data, &r); err != nil {
				return fmt.Errorf("decoding %s: %w", name, err)
			}
			if r.PromptID != "" {
				out = append(out, r)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

// LoadToolResults reads tool classifications from run directories.
func LoadToolResults(dirs ...string) ([]models.ToolResult, error) {
	var out []models.ToolResult
	for _, dir := range dirs {
		if !dirExists(dir) {
			continue
		}
		rs, err := readJSONL[models.ToolResult](filepath.Join(dir, ResultsFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		out = append(out, rs...)
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

// LoadResponsesOrResults reads the classification inputs of run directories
// in either format: responses.jsonl, then results.jsonl, then individual
// files with response content. Analyses in result records are discarded.
func LoadResponsesOrResults(dirs ...string) ([]models.RawResponse, error) {
	var out []models.RawResponse
	for _, dir := range dirs {
		if !dirExists(dir) {
			continue
		}
		if path := filepath.Join(dir, ResponsesFile); fileExists(path) {
			rs, err := readJSONL[models.RawResponse](path)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
			continue
		}
		if path := filepath.Join(dir, ResultsFile); fileExists(path) {
			rs, err := readJSONL[models.BenchmarkResult](path)
			if err != nil {
				return nil, err
			}
			for _, r := range rs {
				out = append(out, r.RawResponse)
			}
			continue
		}
		rs, err := loadRecordFiles(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

func loadRecordFiles(dir string) ([]models.RawResponse, error) {
	var out []models.RawResponse
	err := eachJSONFile(dir, func(name string, data []byte) error {
		// Result records decode too; their analysis is ignored.
		var rec models.RawResponse
		if err := json.Unmarshal(data, &rec); err != nil {
			slog.Warn("Skipping unreadable record", "file", name, "error", err)
			return nil
		}
		if rec.Response.Content == "" {
			return nil
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// readJSONL decodes one value per line. Blank lines are skipped. A final line
// that fails to decode is treated as a write cut short by a crash and skipped
// with a warning; a bad line anywhere else is an error.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	var (
		out     []T
		pending error
		lineNo  int
	)
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", path, readErr)
		}
		lineNo++
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if pending != nil {
				return nil, pending
			}
			var v T
			if err := json.Unmarshal(trimmed, &v); err != nil {
				pending = fmt.Errorf("decoding %s line %d: %w", path, lineNo, err)
			} else {
				out = append(out, v)
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	if pending != nil {
		slog.Warn("Skipping truncated final line", "file", path, "error", pending)
	}
	return out, nil
}

func eachJSONFile(dir string, fn func(name string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if err := fn(name, data); err != nil {
			return err
		}
	}
	return nil
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		slog.Warn("Directory not found", "dir", dir)
		return false
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
