package webapi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/chainbench/chainbench/internal/export"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/statistics"
)

// LatestRunID names the most recent export in GetRun.
const LatestRunID = "latest"

// ErrRunNotFound is returned when a run ID does not match any exported run.
var ErrRunNotFound = errors.New("run not found")

// RunStore provides access to exported dashboard data.
type RunStore interface {
	// ListRuns returns the index entries sorted by the given field and order.
	ListRuns(sortField, order string) ([]export.IndexEntry, error)
	// GetRun returns one exported run, or the latest export for LatestRunID.
	GetRun(id string) (*export.RunData, error)
	// Summary returns run totals and the label shares of the latest run.
	Summary() (*SummaryResponse, error)
}

// FileStore reads the files an export.Exporter writes. The index and
// latest.json are read on every request. Run files never change once
// written, so they are cached by file name; run IDs repeat when the same
// responses are exported again.
type FileStore struct {
	dir string

	mu   sync.RWMutex
	runs map[string]*export.RunData
}

// NewFileStore creates a FileStore over the dashboard data directory dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:  dir,
		runs: make(map[string]*export.RunData),
	}
}

// ListRuns returns the index entries sorted by the given field and order.
func (fs *FileStore) ListRuns(sortField, order string) ([]export.IndexEntry, error) {
	runs := export.LoadIndex(fs.dir)
	sortRuns(runs, sortField, order)
	return runs, nil
}

// GetRun returns one exported run. When several exports share the ID the
// newest one wins.
func (fs *FileStore) GetRun(id string) (*export.RunData, error) {
	if id == LatestRunID {
		return fs.load(export.LatestFile)
	}
	entry, ok := export.FindRun(export.LoadIndex(fs.dir), id)
	if !ok {
		return nil, ErrRunNotFound
	}
	return fs.cached(entry.Filename)
}

func (fs *FileStore) cached(filename string) (*export.RunData, error) {
	fs.mu.RLock()
	data, ok := fs.runs[filename]
	fs.mu.RUnlock()
	if ok {
		return data, nil
	}

	data, err := fs.load(filename)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	fs.runs[filename] = data
	fs.mu.Unlock()
	return data, nil
}

func (fs *FileStore) load(name string) (*export.RunData, error) {
	data, err := export.LoadRun(filepath.Join(fs.dir, filepath.Base(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", name, err)
	}
	return &data, nil
}

// Summary returns run totals and the label shares of the newest indexed run.
func (fs *FileStore) Summary() (*SummaryResponse, error) {
	index := export.LoadIndex(fs.dir)
	resp := &SummaryResponse{
		TotalRuns:  len(index),
		Ecosystems: []models.LabelCount{},
		Networks:   []models.LabelCount{},
		Behaviors:  []models.LabelCount{},
	}
	if len(index) == 0 {
		return resp, nil
	}
	for _, e := range index {
		resp.TotalResults += e.ResultCount
	}

	latest := index[0]
	resp.LatestRunID = latest.RunID
	resp.LatestTimestamp = latest.Timestamp
	data, err := fs.cached(latest.Filename)
	if err != nil {
		return nil, err
	}
	resp.Ecosystems = data.Distribution(statistics.FieldEcosystem).Sorted()
	resp.Networks = data.Distribution(statistics.FieldNetwork).Sorted()
	resp.Behaviors = data.Distribution(statistics.FieldBehavior).Sorted()
	return resp, nil
}

func sortRuns(runs []export.IndexEntry, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "results":
			return runs[i].ResultCount < runs[j].ResultCount
		case "models":
			return runs[i].ModelCount < runs[j].ModelCount
		case "prompts":
			return runs[i].PromptCount < runs[j].PromptCount
		default: // "timestamp" or empty
			return runs[i].Timestamp < runs[j].Timestamp
		}
	}

	if order == "asc" {
		sort.SliceStable(runs, less)
	} else {
		sort.SliceStable(runs, func(i, j int) bool { return less(j, i) })
	}
}

// Ensure FileStore satisfies RunStore.
var _ RunStore = (*FileStore)(nil)
