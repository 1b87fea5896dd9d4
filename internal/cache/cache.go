// Package cache stores classifier verdicts on disk so unchanged responses are
// never sent to an LLM twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/chainbench/chainbench/internal/detection"
	"github.com/chainbench/chainbench/internal/models"
)

// Cache provides caching for classifier verdicts
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory. An empty
// directory disables caching.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key identifies one classification. The key is based on:
// - classifier engine and model
// - the number of majority votes per verdict
// - the kind of verdict (network or tools)
// - the prompt text the response answered
// - the response text
func Key(engine, model string, votes int, kind, promptText, response string) (string, error) {
	h := sha256.New()
	for _, s := range []string{engine, model, strconv.Itoa(votes), kind, promptText, response} {
		if err := writeString(h, s); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get loads a cached verdict into out. Unreadable entries count as misses.
func (c *Cache) Get(key string, out any) bool {
	if c.dir == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Debug("Ignoring corrupt cache entry", "key", key, "error", err)
		return false
	}
	return true
}

// Put stores a verdict in the cache
func (c *Cache) Put(key string, v any) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling verdict: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes all cached verdicts
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Only remove directories that look like ours.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Detector memoizes another detector's verdicts.
type Detector struct {
	inner  detection.Detector
	cache  *Cache
	engine string
	model  string
	votes  int
}

var _ detection.Detector = (*Detector)(nil)

// NewDetector wraps inner. engine, model and votes become part of every key.
func NewDetector(inner detection.Detector, c *Cache, engine, model string, votes int) *Detector {
	return &Detector{inner: inner, cache: c, engine: engine, model: model, votes: votes}
}

// Detect returns the cached verdict or classifies and stores it. Failures are
// never cached.
func (d *Detector) Detect(ctx context.Context, text, promptText string) (models.Detection, error) {
	key, err := Key(d.engine, d.model, d.votes, "network", promptText, text)
	if err != nil {
		return models.Detection{}, err
	}

	var cached models.Detection
	if d.cache.Get(key, &cached) {
		return cached, nil
	}

	det, err := d.inner.Detect(ctx, text, promptText)
	if err != nil {
		return models.Detection{}, err
	}
	if err := d.cache.Put(key, det); err != nil {
		slog.Warn("Failed to cache verdict", "error", err)
	}
	return det, nil
}

// writeString writes s with a null byte delimiter to prevent hash collisions.
func writeString(w io.Writer, s string) error {
	_, err := w.Write([]byte(s + "\x00"))
	return err
}
