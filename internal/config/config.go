package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all collab configuration.
type Config struct {
	// Input parsing
	Dataset DatasetConfig `yaml:"dataset"`

	// Report rendering
	Report ReportConfig `yaml:"report"`

	// On-disk index
	Index IndexConfig `yaml:"index"`

	// Loader scheduling
	Load LoadConfig `yaml:"load"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DatasetConfig describes the input file formats.
type DatasetConfig struct {
	// TitlePrefix is stripped from work ids before canonicalization.
	TitlePrefix string `yaml:"title_prefix"`
	// Layout of the participation file: person or title. Never auto-detected.
	Layout string `yaml:"layout"`
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	UnknownTitle string `yaml:"unknown_title"`
	Terminator   string `yaml:"terminator"`
}

// IndexConfig configures the SQLite index.
type IndexConfig struct {
	// Path written by 'collab index' when --index is not given. Reports only
	// read an index named by the --index flag.
	Path string `yaml:"path"`
}

// LoadConfig configures how the two inputs are loaded.
type LoadConfig struct {
	// Parallel loads titles and participations concurrently.
	Parallel bool `yaml:"parallel"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			TitlePrefix: "tt",
			Layout:      "person",
		},
		Report: ReportConfig{
			UnknownTitle: "Titolo Sconosciuto",
			Terminator:   "=== Fine",
		},
		Load: LoadConfig{
			Parallel: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if layout := os.Getenv("COLLAB_LAYOUT"); layout != "" {
		c.Dataset.Layout = layout
	}
	if level := os.Getenv("COLLAB_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ValidLayouts lists the supported participation layouts.
var ValidLayouts = []string{"person", "title"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validLayout := false
	for _, l := range ValidLayouts {
		if strings.EqualFold(c.Dataset.Layout, l) {
			validLayout = true
			break
		}
	}
	if !validLayout {
		return fmt.Errorf("invalid participation layout: %q (valid: %v)", c.Dataset.Layout, ValidLayouts)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %q (valid: console, json)", c.Logging.Format)
	}

	if strings.ContainsAny(c.Report.Terminator, "\r\n") {
		return fmt.Errorf("report terminator must be a single line")
	}

	return nil
}
