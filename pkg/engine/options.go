package engine

import (
	"fmt"
	"time"

	"github.com/topograph-dev/topograph/pkg/progress"
)

// Options is the engine's entire configuration surface.
// Environment variables and config files are the host's concern; the
// CLI translates its config into this struct.
type Options struct {
	// Extensions restricts discovery; empty means every supported
	// language.
	Extensions []string

	// IgnoreGlobs are gitignore-style patterns layered on top of the
	// default exclusions.
	IgnoreGlobs []string

	// Workers sizes the parsing pool; zero means the logical CPU
	// count.
	Workers int

	// AlgorithmTimeouts maps metric name ("betweenness", "louvain")
	// to its wall-clock budget.
	AlgorithmTimeouts map[string]time.Duration

	// OverallTimeout bounds the whole build; firing behaves like
	// cancellation at the stage boundary it lands in.
	OverallTimeout time.Duration

	// BetweennessSampleSize overrides the sample formula.
	BetweennessSampleSize int

	// RNGSeed fixes the betweenness sample and Louvain tie-breaks.
	RNGSeed uint64

	// HistoryDays bounds the churn/ownership window; zero uses the
	// adapter default.
	HistoryDays int

	// Reporter receives progress events; nil discards them.
	Reporter progress.Reporter
}

// ParseOptions decodes a JSON-shaped option map from a host,
// rejecting unrecognized keys.
func ParseOptions(raw map[string]any) (Options, error) {
	var opts Options
	for key, value := range raw {
		var err error
		switch key {
		case "extensions":
			opts.Extensions, err = toStrings(value)
		case "ignore_globs":
			opts.IgnoreGlobs, err = toStrings(value)
		case "workers":
			opts.Workers, err = toInt(value)
		case "algorithm_timeouts_ms":
			opts.AlgorithmTimeouts, err = toTimeouts(value)
		case "overall_timeout_ms":
			var ms int
			if ms, err = toInt(value); err == nil {
				opts.OverallTimeout = time.Duration(ms) * time.Millisecond
			}
		case "betweenness_sample_size":
			opts.BetweennessSampleSize, err = toInt(value)
		case "rng_seed":
			var seed int
			if seed, err = toInt(value); err == nil {
				opts.RNGSeed = uint64(seed)
			}
		default:
			return Options{}, fmt.Errorf("engine: unrecognized option %q", key)
		}
		if err != nil {
			return Options{}, fmt.Errorf("engine: option %q: %w", key, err)
		}
	}
	return opts, nil
}

func toStrings(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toTimeouts(v any) (map[string]time.Duration, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	out := make(map[string]time.Duration, len(m))
	for metric, msVal := range m {
		ms, err := toInt(msVal)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", metric, err)
		}
		out[metric] = time.Duration(ms) * time.Millisecond
	}
	return out, nil
}
