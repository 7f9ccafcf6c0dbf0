package analytics

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/topograph-dev/topograph/pkg/projection"
)

// sourceSample draws the shared betweenness/closeness source set: a
// uniform sample without replacement, fixed by the run's seed so the
// two stages see identical sources and two runs agree.
func sourceSample(n int, opts Options) []int {
	size := SampleSize(n, opts.SampleSize)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	return rng.Perm(n)[:size]
}

// computeBetweenness approximates Brandes' algorithm over a uniform
// source sample, scaling accumulated scores by N/sample_size. The
// stage carries a wall-clock budget: when it fires, the partial
// accumulation is kept, flagged, and diagnosed, never failed.
func computeBetweenness(ctx context.Context, g *projection.Graph, r *Result, opts Options) error {
	n := g.N()
	if n < 3 {
		return nil
	}
	sources := sourceSample(n, opts)
	deadline := time.Now().Add(opts.timeout(MetricBetweenness))

	// Brandes working state, reused across sources.
	dist := make([]int, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	order := make([]int, 0, n)
	queue := make([]int, 0, n)

	processed := 0
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			finishBetweenness(r, n, len(sources), processed, "cancelled")
			return err
		}
		if time.Now().After(deadline) {
			finishBetweenness(r, n, len(sources), processed, "budget exceeded")
			return nil
		}

		for i := 0; i < n; i++ {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		order = order[:0]
		queue = queue[:0]

		dist[s] = 0
		sigma[s] = 1
		queue = append(queue, s)
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)
			for _, arc := range g.Out[v] {
				w := arc.To
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				r.Betweenness[w] += delta[w]
			}
		}
		processed++
	}

	scale := float64(n) / float64(len(sources))
	for i := range r.Betweenness {
		r.Betweenness[i] *= scale
	}
	return nil
}

func finishBetweenness(r *Result, n, sampleSize, processed int, reason string) {
	r.BetweennessPartial = true
	r.addDiagnostic(MetricBetweenness, true, "%s after %d/%d sources", reason, processed, sampleSize)
	// Scale what was accumulated so partial scores stay comparable to
	// a completed run's magnitude.
	if processed > 0 {
		scale := float64(n) / float64(processed)
		for i := range r.Betweenness {
			r.Betweenness[i] *= scale
		}
	}
}

// computeCloseness shares the betweenness sample: one BFS per source
// accumulates distances, and each node's closeness is the count of
// sources reaching it over the summed distance. Isolated nodes get 0.
func computeCloseness(ctx context.Context, g *projection.Graph, r *Result, opts Options) error {
	n := g.N()
	if n < 2 {
		return nil
	}
	sources := sourceSample(n, opts)

	sumDist := make([]float64, n)
	reached := make([]int, n)
	dist := make([]int, n)
	queue := make([]int, 0, n)

	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range dist {
			dist[i] = -1
		}
		dist[s] = 0
		queue = queue[:0]
		queue = append(queue, s)
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, arc := range g.Out[v] {
				if dist[arc.To] < 0 {
					dist[arc.To] = dist[v] + 1
					sumDist[arc.To] += float64(dist[arc.To])
					reached[arc.To]++
					queue = append(queue, arc.To)
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		if sumDist[i] > 0 {
			r.Closeness[i] = float64(reached[i]) / sumDist[i]
		}
	}
	return nil
}
