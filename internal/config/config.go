// Package config loads the .gh-test-with.yml file and the GitHub Actions
// process environment
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knqyf263/gh-test-with/internal/validate"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up at the repository root
const FileName = ".gh-test-with.yml"

// DefaultConcurrency bounds concurrent API lookups when resolving references
const DefaultConcurrency = 4

// Output formats
const (
	FormatText  = "text"
	FormatLines = "lines"
	FormatJSON  = "json"
)

// Config represents the .gh-test-with.yml configuration
type Config struct {
	// Repository is used for bare PR numbers outside a git checkout
	Repository string        `yaml:"repository"`
	Format     string        `yaml:"format"`
	Resolve    ResolveConfig `yaml:"resolve"`
}

// ResolveConfig controls lookups of referenced pull requests
type ResolveConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Load reads the config file from dir, a missing file yields the defaults
func Load(dir string) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if config.Format == "" {
		config.Format = FormatText
	}
	if config.Resolve.Concurrency == 0 {
		config.Resolve.Concurrency = DefaultConcurrency
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

// Validate checks field values after defaults and flag overrides are applied
func (c *Config) Validate() error {
	if c.Repository != "" {
		if err := validate.Repository(c.Repository); err != nil {
			return err
		}
	}
	if err := ValidateFormat(c.Format); err != nil {
		return err
	}
	if c.Resolve.Concurrency < 1 {
		return fmt.Errorf("resolve.concurrency must be positive, got %d", c.Resolve.Concurrency)
	}
	return nil
}

// ValidateFormat checks an output format name
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatLines, FormatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatText, FormatLines, FormatJSON)
}
