package analytics

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/topograph-dev/topograph/pkg/projection"
)

// computeDegrees fills raw counts, weighted degrees, and the
// normalized-by-(N-1) fractions.
func computeDegrees(g *projection.Graph, r *Result) {
	n := g.N()
	for i := 0; i < n; i++ {
		r.InDegree[i] = len(g.In[i])
		r.OutDegree[i] = len(g.Out[i])
		r.TotalDegree[i] = r.InDegree[i] + r.OutDegree[i]
		for _, arc := range g.In[i] {
			r.WeightedInDegree[i] += arc.Weight
		}
		for _, arc := range g.Out[i] {
			r.WeightedOutDegree[i] += arc.Weight
		}
	}
	if n <= 1 {
		return
	}
	denom := float64(n - 1)
	for i := 0; i < n; i++ {
		r.InDegreeNorm[i] = float64(r.InDegree[i]) / denom
		r.OutDegreeNorm[i] = float64(r.OutDegree[i]) / denom
		r.TotalDegreeNorm[i] = float64(r.TotalDegree[i]) / denom
	}
}

// computeKCore peels nodes with undirected degree below k, recording
// for each node the maximum k at which it survives. Peeling order is
// ascending node index, which fixes tie-breaks deterministically.
func computeKCore(g *projection.Graph, r *Result) {
	n := g.N()
	neighbors := g.Undirected()

	degree := make([]int, n)
	remaining := roaring.New()
	for i := 0; i < n; i++ {
		degree[i] = len(neighbors[i])
		remaining.Add(uint32(i))
	}

	for k := 1; !remaining.IsEmpty(); k++ {
		// Peel everything below k before raising k again; each pass
		// collects the current sub-k frontier in ascending order.
		for {
			var frontier []uint32
			it := remaining.Iterator()
			for it.HasNext() {
				v := it.Next()
				if degree[v] < k {
					frontier = append(frontier, v)
				}
			}
			if len(frontier) == 0 {
				break
			}
			sort.Slice(frontier, func(i, j int) bool { return frontier[i] < frontier[j] })
			for _, v := range frontier {
				remaining.Remove(v)
				r.KCore[v] = k - 1
				for _, u := range neighbors[v] {
					if remaining.Contains(uint32(u)) {
						degree[u]--
					}
				}
			}
		}
	}
}

// computeClustering fills the local clustering coefficient on the
// undirected view: the fraction of possible edges among a node's
// neighbors that exist. Isolated and 1-neighbor nodes get 0.
func computeClustering(g *projection.Graph, r *Result) {
	neighbors := g.Undirected()
	n := g.N()

	adjacent := make([]map[int]bool, n)
	for i, ns := range neighbors {
		adjacent[i] = make(map[int]bool, len(ns))
		for _, u := range ns {
			adjacent[i][u] = true
		}
	}

	for i := 0; i < n; i++ {
		k := len(neighbors[i])
		if k < 2 {
			r.Clustering[i] = 0
			continue
		}
		links := 0
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				if adjacent[neighbors[i][a]][neighbors[i][b]] {
					links++
				}
			}
		}
		r.Clustering[i] = float64(2*links) / float64(k*(k-1))
	}
}
