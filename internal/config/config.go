// Package config provides the Config struct and loader for chainbench.yaml
// project configuration files.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chainbench/chainbench/internal/classifier"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/providers"
)

// FileName is the project configuration file looked up by Load.
const FileName = "chainbench.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultRuns      = 1
	DefaultMaxTokens = providers.MaxTokens

	DefaultResultsDir    = "results"
	DefaultResponsesDir  = "results/responses"
	DefaultClassifiedDir = "results/chains"
	DefaultToolsDir      = "results/tools"
	DefaultDashboardDir  = "dashboard/public/data"

	DefaultClassifierEngine = classifier.EnginePattern
	DefaultClassifierModel  = classifier.DefaultModel
	DefaultClassifierVotes  = classifier.DefaultVotes
	DefaultConcurrency      = 6
	DefaultCacheDir         = ".chainbench-cache"

	maxWalkLevels = 10
)

// PathsConfig holds output directories.
type PathsConfig struct {
	Results    string `yaml:"results,omitempty"`
	Responses  string `yaml:"responses,omitempty"`
	Classified string `yaml:"classified,omitempty"`
	Tools      string `yaml:"tools,omitempty"`
	Dashboard  string `yaml:"dashboard,omitempty"`
}

// ClassifierConfig selects how responses are classified.
type ClassifierConfig struct {
	Engine string `yaml:"engine,omitempty" validate:"omitempty,oneof=pattern claude copilot"`
	Model  string `yaml:"model,omitempty"`
	// Votes is the LLM majority vote size: odd, or 0 for the default.
	Votes       int `yaml:"votes,omitempty" validate:"oneof=0 1 3 5 7 9"`
	Concurrency int `yaml:"concurrency,omitempty" validate:"gte=0"`
	// Cache enables the verdict cache under CacheDir.
	Cache    *bool  `yaml:"cache,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`
}

// Config is the top-level configuration loaded from chainbench.yaml.
type Config struct {
	Prompts    []models.Prompt          `yaml:"prompts,omitempty" validate:"min=1,dive"`
	Models     []models.ModelConfig     `yaml:"models,omitempty" validate:"min=1,dive"`
	MaxTokens  int                      `yaml:"max_tokens,omitempty" validate:"gte=1"`
	Runs       int                      `yaml:"runs,omitempty" validate:"gte=1"`
	WebSearch  *bool                    `yaml:"web_search,omitempty"`
	Paths      PathsConfig              `yaml:"paths,omitempty"`
	Classifier ClassifierConfig         `yaml:"classifier,omitempty"`
	RateLimits map[string]time.Duration `yaml:"rate_limits,omitempty"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	return &Config{
		Prompts:   DefaultPrompts(),
		Models:    DefaultModels(),
		MaxTokens: DefaultMaxTokens,
		Runs:      DefaultRuns,
		WebSearch: boolPtr(false),
		Paths: PathsConfig{
			Results:    DefaultResultsDir,
			Responses:  DefaultResponsesDir,
			Classified: DefaultClassifiedDir,
			Tools:      DefaultToolsDir,
			Dashboard:  DefaultDashboardDir,
		},
		Classifier: ClassifierConfig{
			Engine:      DefaultClassifierEngine,
			Model:       DefaultClassifierModel,
			Votes:       DefaultClassifierVotes,
			Concurrency: DefaultConcurrency,
			Cache:       boolPtr(false),
			CacheDir:    DefaultCacheDir,
		},
		RateLimits: maps.Clone(providers.DefaultDelays),
	}
}

// Load finds chainbench.yaml by walking up from startDir (max 10 levels),
// unmarshals it, fills in missing fields with defaults and validates the
// result. If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*Config, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and prompt/model id uniqueness.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid %s: %s failed on %q", FileName, f.Namespace(), f.Tag())
		}
		return fmt.Errorf("invalid %s: %w", FileName, err)
	}

	seen := make(map[string]bool)
	for _, p := range c.Prompts {
		if seen[p.ID] {
			return fmt.Errorf("invalid %s: duplicate prompt id %q", FileName, p.ID)
		}
		seen[p.ID] = true
	}
	clear(seen)
	for _, m := range c.Models {
		if seen[m.ID] {
			return fmt.Errorf("invalid %s: duplicate model id %q", FileName, m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// Write saves cfg as YAML at path.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// APIKeys reads provider keys from the environment through getenv.
func APIKeys(getenv func(string) string) map[string]string {
	keys := make(map[string]string, len(providers.KeyEnv))
	for name, env := range providers.KeyEnv {
		if v := getenv(env); v != "" {
			keys[name] = v
		}
	}
	return keys
}

// UseCache reports whether the verdict cache is enabled.
func (c *Config) UseCache() bool {
	return c.Classifier.Cache != nil && *c.Classifier.Cache
}

// WebSearchEnabled reports whether web search is on by default.
func (c *Config) WebSearchEnabled() bool {
	return c.WebSearch != nil && *c.WebSearch
}

// findConfigFile walks up from dir looking for chainbench.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range maxWalkLevels {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst. Lists replace the
// defaults wholesale; rate limits merge per provider.
func mergeConfig(dst, src *Config) {
	if len(src.Prompts) > 0 {
		dst.Prompts = src.Prompts
	}
	if len(src.Models) > 0 {
		dst.Models = src.Models
	}
	if src.MaxTokens != 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.Runs != 0 {
		dst.Runs = src.Runs
	}
	if src.WebSearch != nil {
		dst.WebSearch = src.WebSearch
	}

	// Paths
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.Responses != "" {
		dst.Paths.Responses = src.Paths.Responses
	}
	if src.Paths.Classified != "" {
		dst.Paths.Classified = src.Paths.Classified
	}
	if src.Paths.Tools != "" {
		dst.Paths.Tools = src.Paths.Tools
	}
	if src.Paths.Dashboard != "" {
		dst.Paths.Dashboard = src.Paths.Dashboard
	}

	// Classifier
	if src.Classifier.Engine != "" {
		dst.Classifier.Engine = src.Classifier.Engine
	}
	if src.Classifier.Model != "" {
		dst.Classifier.Model = src.Classifier.Model
	}
	if src.Classifier.Votes != 0 {
		dst.Classifier.Votes = src.Classifier.Votes
	}
	if src.Classifier.Concurrency != 0 {
		dst.Classifier.Concurrency = src.Classifier.Concurrency
	}
	if src.Classifier.Cache != nil {
		dst.Classifier.Cache = src.Classifier.Cache
	}
	if src.Classifier.CacheDir != "" {
		dst.Classifier.CacheDir = src.Classifier.CacheDir
	}

	maps.Copy(dst.RateLimits, src.RateLimits)
}

func boolPtr(b bool) *bool {
	return &b
}
