package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsFullSurface(t *testing.T) {
	opts, err := ParseOptions(map[string]any{
		"extensions":   []any{"ts", "py"},
		"ignore_globs": []any{"vendor/**"},
		"workers":      float64(8), // JSON numbers arrive as float64
		"algorithm_timeouts_ms": map[string]any{
			"betweenness": float64(250),
			"louvain":     float64(500),
		},
		"overall_timeout_ms":      float64(60000),
		"betweenness_sample_size": float64(128),
		"rng_seed":                float64(42),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ts", "py"}, opts.Extensions)
	assert.Equal(t, []string{"vendor/**"}, opts.IgnoreGlobs)
	assert.Equal(t, 8, opts.Workers)
	assert.Equal(t, 250*time.Millisecond, opts.AlgorithmTimeouts["betweenness"])
	assert.Equal(t, 500*time.Millisecond, opts.AlgorithmTimeouts["louvain"])
	assert.Equal(t, time.Minute, opts.OverallTimeout)
	assert.Equal(t, 128, opts.BetweennessSampleSize)
	assert.Equal(t, uint64(42), opts.RNGSeed)
}

func TestParseOptionsRejectsUnknownKey(t *testing.T) {
	_, err := ParseOptions(map[string]any{"worker_count": 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker_count")
}

func TestParseOptionsRejectsBadTypes(t *testing.T) {
	_, err := ParseOptions(map[string]any{"workers": "eight"})
	require.Error(t, err)

	_, err = ParseOptions(map[string]any{"extensions": []any{1, 2}})
	require.Error(t, err)

	_, err = ParseOptions(map[string]any{"algorithm_timeouts_ms": "fast"})
	require.Error(t, err)
}

func TestParseOptionsEmpty(t *testing.T) {
	opts, err := ParseOptions(nil)
	require.NoError(t, err)
	assert.Zero(t, opts.Workers)
	assert.Empty(t, opts.Extensions)
}
