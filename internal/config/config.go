// Package config loads the driver settings from patlower.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the name FindConfig looks for
const FileName = "patlower.yaml"

// Color modes for diagnostics
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents the top-level patlower.yaml configuration.
type Config struct {
	// Concurrency bounds how many units are lowered at once. Zero means one
	// per CPU.
	Concurrency int `yaml:"concurrency"`

	// ValidateOutput runs the validator over every lowered unit and reports
	// its findings as internal errors.
	ValidateOutput bool `yaml:"validate"`

	// DebugPatterns logs the tree notation of every lowered unit.
	DebugPatterns bool `yaml:"debug_patterns"`

	// Color is one of auto, always or never.
	Color string `yaml:"color"`

	// ExhaustiveStatements makes pattern switch statements without a
	// default raise MatchException when nothing matches.
	ExhaustiveStatements bool `yaml:"exhaustive_statements"`

	// MaxSteps bounds loop iterations and switch dispatches of one `run`
	// call. Zero keeps the interpreter's default.
	MaxSteps int `yaml:"max_steps,omitempty"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{
		Concurrency:          runtime.NumCPU(),
		ValidateOutput:       true,
		Color:                ColorAuto,
		ExhaustiveStatements: true,
	}
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses config content from bytes. Keys missing from data keep their
// defaults. The path argument is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	return cfg, nil
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	return nil
}

// FindConfig searches for patlower.yaml starting from dir and walking up to
// parent directories. It returns "" and a nil error when there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
