package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/evo/internal/core/schedule"
)

// Config represents the flat evo configuration.
type Config struct {
	Version                  string `json:"version"`
	MaxConcurrentExperiments int    `json:"max_concurrent_experiments,omitempty"`
	MinExperimentGap         string `json:"min_experiment_gap,omitempty"` // Go duration string, e.g. "24h"
}

// LoadConfig reads .evo/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".evo", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	evoDir := filepath.Join(dir, ".evo")
	if err := os.MkdirAll(evoDir, 0755); err != nil {
		return fmt.Errorf("failed to create .evo dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(evoDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Limits converts the config to scheduler limits, falling back to the
// defaults for unset fields.
func (c *Config) Limits() (schedule.Limits, error) {
	limits := schedule.DefaultLimits()
	if c.MaxConcurrentExperiments > 0 {
		limits.MaxConcurrent = c.MaxConcurrentExperiments
	}
	if c.MinExperimentGap != "" {
		gap, err := time.ParseDuration(c.MinExperimentGap)
		if err != nil {
			return limits, fmt.Errorf("failed to parse min_experiment_gap: %w", err)
		}
		limits.MinGap = gap
	}
	return limits, nil
}
