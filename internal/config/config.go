// Package config loads the source catalog and pipeline settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "INSIGHTS_CONFIG"

	DefaultConfigPath = "configs/sources.yaml"
	DefaultDataDir    = "assets/data"

	// SnapshotFileName is the current-state document under DataDir.
	SnapshotFileName = "insights-data.json"
	// ArchiveDirName holds the per-date archive documents under DataDir.
	ArchiveDirName = "archive"
)

// Source describes one configured feed endpoint.
type Source struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Type     string   `yaml:"type"`   // "policy" or "media"
	Region   string   `yaml:"region"` // Malaysia | Singapore | ASEAN | "" for media
	Priority int      `yaml:"priority"`
	Enabled  *bool    `yaml:"enabled"`  // omitted means enabled
	Keywords []string `yaml:"keywords"` // empty means no prefilter
}

// IsEnabled reports whether the source takes part in the run.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// TargetCount is a min/max item budget for one stream.
type TargetCount struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// TargetDailyCount groups the per-stream budgets.
type TargetDailyCount struct {
	Policy   TargetCount `yaml:"policy"`
	Industry TargetCount `yaml:"industry"`
}

// IndustryRule maps an industry label to its keywords. Rules are evaluated
// in file order and the first match wins.
type IndustryRule struct {
	Industry string   `yaml:"industry"`
	Keywords []string `yaml:"keywords"`
}

// AIFiltering configures the optional enrichment stage.
type AIFiltering struct {
	Enabled           bool   `yaml:"enabled"`
	Model             string `yaml:"model"`
	PromptPolicy      string `yaml:"prompt_policy"`
	PromptIndustry    string `yaml:"prompt_industry"`
	TranslationTarget string `yaml:"translation_target"`
	BatchSize         int    `yaml:"batch_size"`
}

// Config is the full run configuration: the YAML catalog plus env overrides.
type Config struct {
	Sources            []Source         `yaml:"sources"`
	TargetDailyCount   TargetDailyCount `yaml:"target_daily_count"`
	PolicyPerRegionMax int              `yaml:"policy_per_region_max"`
	IndustryKeywords   []IndustryRule   `yaml:"industry_keywords"`
	AIFiltering        AIFiltering      `yaml:"ai_filtering"`

	// Environment settings
	GeminiAPIKey string `yaml:"-"`
	DataDir      string `yaml:"-"`
	Schedule     string `yaml:"-"`
	Debug        bool   `yaml:"-"`
}

// Load reads the YAML catalog and applies environment overrides.
func Load() (*Config, error) {
	path := os.Getenv(configPathEnv)
	if path == "" {
		path = DefaultConfigPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{
		TargetDailyCount: TargetDailyCount{
			Policy:   TargetCount{Min: 6, Max: 10},
			Industry: TargetCount{Min: 12, Max: 20},
		},
		PolicyPerRegionMax: 5,
		AIFiltering: AIFiltering{
			Model:     "gemini-1.5-flash",
			BatchSize: 10,
		},
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.DataDir = getEnvOrDefault("DATA_DIR", DefaultDataDir)
	cfg.Schedule = os.Getenv("SCHEDULE")
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}
	if v := os.Getenv("AI_BATCH_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.AIFiltering.BatchSize = val
		}
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks invariants that would otherwise surface mid-run.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	for _, s := range c.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("source %q: name and url are required", s.Name)
		}
		if s.Type != "policy" && s.Type != "media" {
			return fmt.Errorf("source %q: type must be 'policy' or 'media', got %q", s.Name, s.Type)
		}
	}
	for _, tc := range []struct {
		name string
		t    TargetCount
	}{{"policy", c.TargetDailyCount.Policy}, {"industry", c.TargetDailyCount.Industry}} {
		if tc.t.Min <= 0 || tc.t.Max < tc.t.Min {
			return fmt.Errorf("target_daily_count.%s: need 0 < min <= max, got %d/%d", tc.name, tc.t.Min, tc.t.Max)
		}
	}
	if c.PolicyPerRegionMax <= 0 {
		return fmt.Errorf("policy_per_region_max must be positive")
	}
	if c.AIFiltering.BatchSize <= 0 {
		return fmt.Errorf("ai_filtering.batch_size must be positive")
	}
	return nil
}

// EnabledSources returns the enabled sources ordered by priority (lower first).
func (c *Config) EnabledSources() []Source {
	out := make([]Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// SnapshotPath is the location of the current-state document.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, SnapshotFileName)
}

// ArchiveDir is the directory holding per-date archive documents.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.DataDir, ArchiveDirName)
}
