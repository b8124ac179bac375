// Package config loads nc2csv configuration from YAML with defaults
// that can be overridden per setting.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents nc2csv configuration options.
type Config struct {
	// Engine is the preferred backend for opening NetCDF files
	// (netcdf4, scipy or h5netcdf).
	Engine string `yaml:"engine"`

	// Patterns are the filename globs matched during directory resolution.
	Patterns []string `yaml:"patterns"`

	// OutputDir is the directory tabular outputs are written to.
	OutputDir string `yaml:"output_dir"`

	// Recursive enables descent into subdirectories.
	Recursive bool `yaml:"recursive"`

	// MaxDepth limits recursion depth (0 = unlimited, 1 = the input
	// directory itself only).
	MaxDepth int `yaml:"max_depth"`

	// PreserveStructure mirrors the input directory layout in the
	// output directory.
	PreserveStructure bool `yaml:"preserve_structure"`

	// Workbook additionally writes an xlsx workbook per source file.
	Workbook bool `yaml:"workbook"`

	// LogLevel sets logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// HistoryDB is the path of the SQLite run-history database.
	// Empty disables run history.
	HistoryDB string `yaml:"history_db"`
}

// DefaultConfig returns a Config with sensible default values. The
// default patterns match the NetCDF filename variants commonly seen in
// ocean-model output drops.
func DefaultConfig() *Config {
	return &Config{
		Engine:            "netcdf4",
		Patterns:          []string{"*.nc", "*.netcdf", "*.NC"},
		OutputDir:         "csv_output",
		Recursive:         false,
		MaxDepth:          0,
		PreserveStructure: true,
		Workbook:          false,
		LogLevel:          "info",
		HistoryDB:         ".nc2csv/history.db",
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file returns default configuration without error; a
// malformed file returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge non-empty scalar values over the defaults.
	if fileCfg.Engine != "" {
		cfg.Engine = fileCfg.Engine
	}
	if len(fileCfg.Patterns) > 0 {
		cfg.Patterns = fileCfg.Patterns
	}
	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
	if fileCfg.MaxDepth != 0 {
		cfg.MaxDepth = fileCfg.MaxDepth
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}

	// Booleans and history_db need presence detection: false / empty in
	// the file must be able to override a non-zero default.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if _, ok := raw["recursive"]; ok {
			cfg.Recursive = fileCfg.Recursive
		}
		if _, ok := raw["preserve_structure"]; ok {
			cfg.PreserveStructure = fileCfg.PreserveStructure
		}
		if _, ok := raw["workbook"]; ok {
			cfg.Workbook = fileCfg.Workbook
		}
		if _, ok := raw["history_db"]; ok {
			cfg.HistoryDB = fileCfg.HistoryDB
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that do not depend on the
// filesystem.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	for _, p := range c.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("empty filename pattern")
		}
	}
	return nil
}
