package compose

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Robust normalization: each raw column is min-max scaled against its
// 1st/99th percentile cut-offs, clamped to [0,1]. A degenerate column
// (hi <= lo) normalizes to all-zero when the constant is zero and to
// all-one otherwise: a uniformly nonzero signal saturates rather
// than vanishes, which keeps a single-file build's PageRank visible
// in the composites.

const (
	trimLow  = 0.01
	trimHigh = 0.99
)

// normalizeColumn returns the robust-normalized copy of values.
func normalizeColumn(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo := stat.Quantile(trimLow, stat.Empirical, sorted, nil)
	hi := stat.Quantile(trimHigh, stat.Empirical, sorted, nil)

	if hi <= lo {
		if lo > 0 {
			for i := range out {
				out[i] = 1
			}
		}
		return out
	}

	scale := hi - lo
	for i, v := range values {
		out[i] = clamp01((v - lo) / scale)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func intsToFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
