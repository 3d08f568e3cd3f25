// Package config provides configuration loading and management for helicalindex.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Limits guard against runaway memory use on oversized inputs
	Limits struct {
		// MaxImageDim is the largest accepted input image side, in pixels
		MaxImageDim int `yaml:"maxImageDim"`

		// MaxSpectrumDim is the largest accepted power spectrum side, in pixels
		MaxSpectrumDim int `yaml:"maxSpectrumDim"`
	} `yaml:"limits"`

	// Alignment parameters for the rotation and shift estimator
	Alignment struct {
		// MaxIterations caps the simplex refinement iteration count
		MaxIterations int `yaml:"maxIterations"`

		// AngleTolerance is the rotation search convergence tolerance in degrees
		AngleTolerance float64 `yaml:"angleTolerance"`

		// ShiftTolerance is the shift search convergence tolerance in pixels
		ShiftTolerance float64 `yaml:"shiftTolerance"`

		// SimplexTolerance is the absolute function tolerance for the simplex stage
		SimplexTolerance float64 `yaml:"simplexTolerance"`
	} `yaml:"alignment"`

	// Cache parameters for memoized spectrum and order map results
	Cache struct {
		// MaxEntries bounds the number of cached results; 0 disables the bound
		MaxEntries int `yaml:"maxEntries"`
	} `yaml:"cache"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default limits
	cfg.Limits.MaxImageDim = 4096
	cfg.Limits.MaxSpectrumDim = 2048

	// Set default alignment parameters
	cfg.Alignment.MaxIterations = 200
	cfg.Alignment.AngleTolerance = 1e-3
	cfg.Alignment.ShiftTolerance = 1e-3
	cfg.Alignment.SimplexTolerance = 1e-4

	// Set default cache parameters
	cfg.Cache.MaxEntries = 32

	// Set default output parameters
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
