// Package config loads the CLI host's configuration file. This is
// deliberately outside the engine's own Options surface: the engine
// takes a plain struct, and translating files or environment into it
// is the host's concern.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/topograph-dev/topograph/pkg/engine"
)

// Config holds all configuration options for topograph.
type Config struct {
	// Analysis settings forwarded into the engine's Options.
	Analysis AnalysisConfig `koanf:"analysis"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// AnalysisConfig controls the engine run.
type AnalysisConfig struct {
	Extensions            []string       `koanf:"extensions"`
	IgnoreGlobs           []string       `koanf:"ignore_globs"`
	Workers               int            `koanf:"workers"`
	AlgorithmTimeoutsMs   map[string]int `koanf:"algorithm_timeouts_ms"`
	OverallTimeoutMs      int            `koanf:"overall_timeout_ms"`
	BetweennessSampleSize int            `koanf:"betweenness_sample_size"`
	RNGSeed               uint64         `koanf:"rng_seed"`
	HistoryDays           int            `koanf:"history_days"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			HistoryDays: 90,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// EngineOptions translates the analysis section into the engine's
// option struct.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.Options{
		Extensions:            c.Analysis.Extensions,
		IgnoreGlobs:           c.Analysis.IgnoreGlobs,
		Workers:               c.Analysis.Workers,
		OverallTimeout:        time.Duration(c.Analysis.OverallTimeoutMs) * time.Millisecond,
		BetweennessSampleSize: c.Analysis.BetweennessSampleSize,
		RNGSeed:               c.Analysis.RNGSeed,
		HistoryDays:           c.Analysis.HistoryDays,
	}
	if len(c.Analysis.AlgorithmTimeoutsMs) > 0 {
		opts.AlgorithmTimeouts = make(map[string]time.Duration, len(c.Analysis.AlgorithmTimeoutsMs))
		for metric, ms := range c.Analysis.AlgorithmTimeoutsMs {
			opts.AlgorithmTimeouts[metric] = time.Duration(ms) * time.Millisecond
		}
	}
	return opts
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or
// returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"topograph.toml",
		"topograph.yaml",
		"topograph.yml",
		"topograph.json",
		".topograph.toml",
		".topograph.yaml",
		".topograph.yml",
		".topograph.json",
	}

	for _, name := range configNames {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			if err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}
