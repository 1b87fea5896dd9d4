// Package storage persists benchmark records as one pretty-printed JSON file
// per record plus an append-only JSONL file per run directory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chainbench/chainbench/internal/models"
)

// ErrNoResults is returned when no records could be loaded.
var ErrNoResults = errors.New("no results found")

const (
	ResultsFile   = "results.jsonl"
	ResponsesFile = "responses.jsonl"
)

// RunDirName names a run directory after its start time and search mode.
func RunDirName(start time.Time, webSearch bool) string {
	suffix := "-standard"
	if webSearch {
		suffix = "-web-search"
	}
	return "run-" + Timestamp(start) + suffix
}

// Timestamp formats t as an ISO timestamp safe for file names, to the second.
func Timestamp(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	iso = strings.NewReplacer(":", "-", ".", "-").Replace(iso)
	return iso[:19]
}

// CreateOutputDir creates a run directory under base.
func CreateOutputDir(base string, webSearch bool, start time.Time) (string, error) {
	dir := filepath.Join(base, RunDirName(start, webSearch))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// CreateToolOutputDir creates a run directory for tool classifications.
func CreateToolOutputDir(base string, start time.Time) (string, error) {
	dir := filepath.Join(base, "run-"+Timestamp(start))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// Store writes records into one run directory. It is safe for concurrent use.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open returns a store for dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the run directory.
func (s *Store) Dir() string { return s.dir }

// SaveResult stores an analyzed result.
func (s *Store) SaveResult(r models.BenchmarkResult) error {
	return s.save(recordName(r.RawResponse), ResultsFile, r)
}

// SaveResponse stores an unclassified response.
func (s *Store) SaveResponse(r models.RawResponse) error {
	return s.save(recordName(r), ResponsesFile, r)
}

// SaveToolResult stores a tool classification.
func (s *Store) SaveToolResult(r models.ToolResult) error {
	return s.save(recordName(r.RawResponse), ResultsFile, r)
}

func recordName(r models.RawResponse) string {
	return fmt.Sprintf("%s_%s_%s.json", r.RunID, r.PromptID, r.Model.ID)
}

func (s *Store) save(name, combined string, v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.dir, name), pretty, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, combined), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", combined, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("appending to %s: %w", combined, err)
	}
	return f.Close()
}
