package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the cleanup run configuration
type Config struct {
	Database struct {
		MainURL   string `yaml:"main_url"`
		VectorURL string `yaml:"vector_url"`
	} `yaml:"database"`
	Retention struct {
		KeepDays int `yaml:"keep_days"`
	} `yaml:"retention"`
	Paths struct {
		UploadsDir string `yaml:"uploads_dir"`
	} `yaml:"paths"`
	Vacuum bool `yaml:"vacuum"`
}

// Load loads configuration from the given file. With an empty path the
// default location is tried and a missing file just yields defaults; an
// explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".owui-cleanup", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that everything a run needs is present
func (c *Config) Validate() error {
	if c.Database.MainURL == "" {
		return fmt.Errorf("main database URL is required")
	}
	if c.Database.VectorURL == "" {
		return fmt.Errorf("vector database URL is required")
	}
	if c.Paths.UploadsDir == "" {
		return fmt.Errorf("uploads directory is required")
	}
	if c.Retention.KeepDays <= 0 {
		return fmt.Errorf("keep-days must be a positive number of days, got %d", c.Retention.KeepDays)
	}
	return nil
}

// Default returns an empty configuration. Every required value must come
// from the config file or the command line; there are no safe defaults
// for a tool that deletes data.
func Default() *Config {
	return &Config{}
}
