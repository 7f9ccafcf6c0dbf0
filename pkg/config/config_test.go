package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.Color)
	assert.Equal(t, 90, cfg.Analysis.HistoryDays)
	assert.Empty(t, cfg.Analysis.Extensions)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "topograph.toml", `
[analysis]
extensions = ["ts", "py"]
workers = 4
rng_seed = 7
betweenness_sample_size = 512

[analysis.algorithm_timeouts_ms]
betweenness = 2000

[output]
format = "json"
color = false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ts", "py"}, cfg.Analysis.Extensions)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, uint64(7), cfg.Analysis.RNGSeed)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
	// Defaults survive partial files.
	assert.Equal(t, 90, cfg.Analysis.HistoryDays)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "topograph.yaml", `
analysis:
  ignore_globs:
    - "fixtures/**"
  overall_timeout_ms: 30000
output:
  verbose: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixtures/**"}, cfg.Analysis.IgnoreGlobs)
	assert.Equal(t, 30000, cfg.Analysis.OverallTimeoutMs)
	assert.True(t, cfg.Output.Verbose)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "topograph.json", `{"analysis": {"workers": 2}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Analysis.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEngineOptionsTranslation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.Workers = 6
	cfg.Analysis.OverallTimeoutMs = 45000
	cfg.Analysis.AlgorithmTimeoutsMs = map[string]int{"louvain": 1500}
	cfg.Analysis.RNGSeed = 99

	opts := cfg.EngineOptions()
	assert.Equal(t, 6, opts.Workers)
	assert.Equal(t, 45*time.Second, opts.OverallTimeout)
	assert.Equal(t, 1500*time.Millisecond, opts.AlgorithmTimeouts["louvain"])
	assert.Equal(t, uint64(99), opts.RNGSeed)
	assert.Equal(t, 90, opts.HistoryDays)
}
