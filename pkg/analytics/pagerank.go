package analytics

import (
	"context"
	"math"

	"github.com/topograph-dev/topograph/pkg/projection"
)

const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
	pageRankMaxIter   = 100
)

// computePageRank runs weighted sparse power iteration: O(E) per
// iteration, edge weights counting as transition multiplicities, and
// dangling nodes redistributing their mass uniformly. Convergence is
// the L1 delta between iterations falling below tolerance, with a
// hard cap of 100 iterations.
func computePageRank(ctx context.Context, g *projection.Graph, r *Result) error {
	n := g.N()

	outWeight := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, arc := range g.Out[i] {
			outWeight[i] += arc.Weight
		}
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range rank {
		rank[i] = initial
	}
	teleport := (1.0 - pageRankDamping) / float64(n)

	for iter := 0; iter < pageRankMaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			copy(r.PageRank, rank)
			return err
		}

		for i := range next {
			next[i] = teleport
		}
		for i := 0; i < n; i++ {
			if outWeight[i] > 0 {
				scale := pageRankDamping * rank[i] / outWeight[i]
				for _, arc := range g.Out[i] {
					next[arc.To] += scale * arc.Weight
				}
			} else {
				// Dangling node: its mass spreads uniformly.
				share := pageRankDamping * rank[i] / float64(n)
				for j := range next {
					next[j] += share
				}
			}
		}

		delta := 0.0
		for i := range rank {
			delta += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if delta < pageRankTolerance {
			break
		}
	}

	copy(r.PageRank, rank)
	return nil
}

// PageRankVector runs the same weighted PageRank standalone over any
// projection; the engine uses it for the optional calls projection.
func PageRankVector(ctx context.Context, g *projection.Graph) ([]float64, error) {
	r := &Result{PageRank: make([]float64, g.N())}
	if g.N() == 0 {
		return r.PageRank, nil
	}
	if err := computePageRank(ctx, g, r); err != nil {
		return r.PageRank, err
	}
	return r.PageRank, nil
}

// computeEigenvector runs power iteration with L2 normalization
// between iterations, capped at 100 iterations with 1e-6 convergence.
// If iteration fails to converge, the vector falls back to normalized
// total degree.
func computeEigenvector(ctx context.Context, g *projection.Graph, r *Result) error {
	n := g.N()

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	converged := false
	for iter := 0; iter < 100; iter++ {
		if err := ctx.Err(); err != nil {
			copy(r.Eigenvector, scores)
			return err
		}

		for i := 0; i < n; i++ {
			sum := 0.0
			for _, arc := range g.In[i] {
				sum += scores[arc.To] * arc.Weight
			}
			next[i] = sum
		}

		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			// No mass moved anywhere (no edges); bail to fallback.
			break
		}
		for i := range next {
			next[i] /= norm
		}

		maxDiff := 0.0
		for i := range scores {
			if d := math.Abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores
		if maxDiff < 1e-6 {
			converged = true
			break
		}
	}

	if !converged {
		r.addDiagnostic("eigenvector", false, "power iteration did not converge; falling back to degree centrality")
		copy(r.Eigenvector, r.TotalDegreeNorm)
		return nil
	}
	copy(r.Eigenvector, scores)
	return nil
}
