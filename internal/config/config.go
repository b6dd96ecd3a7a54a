// Package config loads and persists mender configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"mender/internal/paths"
)

// Config represents the complete mender configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	History   HistoryConfig   `json:"history" mapstructure:"history"`
	Recovery  RecoveryConfig  `json:"recovery" mapstructure:"recovery"`
	Pipeline  PipelineConfig  `json:"pipeline" mapstructure:"pipeline"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// HistoryConfig controls revision retrieval
type HistoryConfig struct {
	// MaxGenerations caps how many prior revisions are retrieved per file
	MaxGenerations int `json:"maxGenerations" mapstructure:"maxGenerations"`
}

// RecoveryConfig controls reconstruction and extraction heuristics
type RecoveryConfig struct {
	// HeaderWindowLines bounds module-level constant capture during extraction
	HeaderWindowLines int `json:"headerWindowLines" mapstructure:"headerWindowLines"`
	// DriftThreshold is the structural similarity below which drift is flagged
	DriftThreshold float64 `json:"driftThreshold" mapstructure:"driftThreshold"`
	// IndentUnit is the whitespace inserted per indentation level during repair
	IndentUnit string `json:"indentUnit" mapstructure:"indentUnit"`
}

// PipelineConfig controls the multi-file batch runner
type PipelineConfig struct {
	// Workers is the number of concurrent per-file pipelines
	Workers int `json:"workers" mapstructure:"workers"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		History: HistoryConfig{
			MaxGenerations: 5,
		},
		Recovery: RecoveryConfig{
			HeaderWindowLines: 50,
			DriftThreshold:    0.8,
			IndentUnit:        "    ",
		},
		Pipeline: PipelineConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration for a repo root with precedence:
// .mender/config.json > MENDER_* environment variables > defaults.
// A missing config file is not an error; defaults apply.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(paths.ConfigPath(repoRoot))
	v.SetConfigType("json")

	v.SetEnvPrefix("MENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("history.maxGenerations", def.History.MaxGenerations)
	v.SetDefault("recovery.headerWindowLines", def.Recovery.HeaderWindowLines)
	v.SetDefault("recovery.driftThreshold", def.Recovery.DriftThreshold)
	v.SetDefault("recovery.indentUnit", def.Recovery.IndentUnit)
	v.SetDefault("pipeline.workers", def.Pipeline.Workers)
	v.SetDefault("logging.level", def.Logging.Level)

	if _, err := os.Stat(paths.ConfigPath(repoRoot)); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.RepoRoot = repoRoot

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.History.MaxGenerations < 1 {
		return fmt.Errorf("history.maxGenerations must be >= 1, got %d", c.History.MaxGenerations)
	}
	if c.Recovery.HeaderWindowLines < 1 {
		return fmt.Errorf("recovery.headerWindowLines must be >= 1, got %d", c.Recovery.HeaderWindowLines)
	}
	if c.Recovery.DriftThreshold < 0 || c.Recovery.DriftThreshold > 1 {
		return fmt.Errorf("recovery.driftThreshold must be in [0,1], got %f", c.Recovery.DriftThreshold)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be >= 1, got %d", c.Pipeline.Workers)
	}
	return nil
}

// Save writes the configuration to .mender/config.json.
func (c *Config) Save() error {
	if _, err := paths.EnsureStateDir(c.RepoRoot); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(paths.ConfigPath(c.RepoRoot), data, 0644)
}
