package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/klauspost/compress/gzip"
)

const (
	LatestFile = "latest.json"
	IndexFile  = "runs.json"
	ToolsDir   = "tools"
)

// Exporter writes payloads into a dashboard data directory.
type Exporter struct {
	dir  string
	gzip bool
	now  func() time.Time
}

// NewExporter creates an exporter for dir. With compress set, every file also
// gets a .gz sibling for static hosts that serve precompressed assets.
func NewExporter(dir string, compress bool) *Exporter {
	return &Exporter{dir: dir, gzip: compress, now: time.Now}
}

// Export writes the run file, replaces latest.json and records the run in
// runs.json. It returns the run file path.
func (e *Exporter) Export(results []models.BenchmarkResult, g *grid.Grid) (string, error) {
	data := BuildRunData(results, g, e.now())
	filename := "run-" + SafeTimestamp(data.Meta.Timestamp) + ".json"

	runPath := filepath.Join(e.dir, filename)
	if err := e.writeJSON(runPath, data); err != nil {
		return "", err
	}
	if err := e.writeJSON(filepath.Join(e.dir, LatestFile), data); err != nil {
		return "", err
	}

	index := LoadIndex(e.dir)
	index = append(index, IndexEntry{
		Timestamp:   data.Meta.Timestamp,
		RunID:       data.Meta.RunID,
		Filename:    filename,
		ModelCount:  data.Meta.ModelCount,
		PromptCount: data.Meta.PromptCount,
		ResultCount: data.Meta.ResultCount,
		WebSearch:   data.Meta.WebSearch,
	})
	sort.SliceStable(index, func(i, j int) bool {
		return index[i].Timestamp > index[j].Timestamp
	})
	if err := e.writeJSON(filepath.Join(e.dir, IndexFile), index); err != nil {
		return "", err
	}

	slog.Debug("Exported dashboard data", "path", runPath, "results", len(results))
	return runPath, nil
}

// ExportTools writes a tools payload and its latest.json under tools/.
func (e *Exporter) ExportTools(results []models.ToolResult) (string, error) {
	data := BuildToolRunData(results, e.now())
	dir := filepath.Join(e.dir, ToolsDir)
	runPath := filepath.Join(dir, "run-"+SafeTimestamp(data.Meta.Timestamp)+".json")

	if err := e.writeJSON(runPath, data); err != nil {
		return "", err
	}
	if err := e.writeJSON(filepath.Join(dir, LatestFile), data); err != nil {
		return "", err
	}
	return runPath, nil
}

// LoadIndex reads runs.json. A missing or unreadable index starts over empty.
func LoadIndex(dir string) []IndexEntry {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return []IndexEntry{}
	}
	var index []IndexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		slog.Warn("Ignoring unreadable run index", "dir", dir, "error", err)
		return []IndexEntry{}
	}
	return index
}

// FindRun returns the index entry for runID.
func FindRun(index []IndexEntry, runID string) (IndexEntry, bool) {
	for _, e := range index {
		if e.RunID == runID {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// LoadRun reads an exported payload, gzipped or not.
func LoadRun(path string) (RunData, error) {
	f, err := os.Open(path)
	if err != nil {
		return RunData{}, err
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return RunData{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer zr.Close() //nolint:errcheck
		r = zr
	}

	var data RunData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return RunData{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return data, nil
}

func (e *Exporter) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if e.gzip {
		return writeGzip(path+".gz", data)
	}
	return nil
}

func writeGzip(path string, data []byte) error {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compressing %s: %w", filepath.Base(path), err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
