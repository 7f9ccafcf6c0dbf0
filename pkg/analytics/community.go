package analytics

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/topograph-dev/topograph/pkg/projection"
)

// toWeightedUndirected converts the projection's undirected weighted
// view into a gonum graph for Louvain and the SCC pass reuses the
// directed variant below.
func toWeightedUndirected(g *projection.Graph) *simple.WeightedUndirectedGraph {
	und := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < g.N(); i++ {
		und.AddNode(simple.Node(i))
	}
	for pair, w := range g.UndirectedWeights() {
		und.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(pair[0]), T: simple.Node(pair[1]), W: w,
		})
	}
	return und
}

func toDirected(g *projection.Graph) *simple.DirectedGraph {
	dir := simple.NewDirectedGraph()
	for i := 0; i < g.N(); i++ {
		dir.AddNode(simple.Node(i))
	}
	for from, arcs := range g.Out {
		for _, arc := range arcs {
			if from == arc.To {
				continue
			}
			dir.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(arc.To)})
		}
	}
	return dir
}

// computeCommunities runs gonum's Louvain (Modularize) over the
// weighted undirected imports projection with a seeded source for
// deterministic tie-breaks, then renumbers communities 0-contiguous
// by descending size so id 0 is always the largest.
//
// Modularize has no incremental checkpoints, so the budget is applied
// around the whole call: a run that exceeds it is discarded and every
// node lands in community 0 with a diagnostic.
func computeCommunities(ctx context.Context, g *projection.Graph, r *Result, opts Options) error {
	n := g.N()
	if n == 0 {
		return nil
	}
	if g.EdgeCount() == 0 {
		// Louvain on an empty edge set: every node is its own
		// community; renumbering by size makes them 0..N-1.
		for i := 0; i < n; i++ {
			r.Community[i] = i
		}
		r.CommunityCount = n
		return nil
	}

	und := toWeightedUndirected(g)

	type louvainOut struct {
		communities [][]int
		modularity  float64
	}
	done := make(chan louvainOut, 1)
	go func() {
		src := rand.NewPCG(opts.Seed, opts.Seed^0x7f4a7c159e3779b9)
		reduced := community.Modularize(und, 1.0, src)
		comms := reduced.Communities()
		out := louvainOut{communities: make([][]int, len(comms))}
		for i, comm := range comms {
			for _, node := range comm {
				out.communities[i] = append(out.communities[i], int(node.ID()))
			}
		}
		out.modularity = community.Q(und, comms, 1.0)
		done <- out
	}()

	timer := time.NewTimer(opts.timeout(MetricLouvain))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.CommunityCount = 1
		return ctx.Err()
	case <-timer.C:
		r.LouvainTimedOut = true
		r.CommunityCount = 1
		r.addDiagnostic(MetricLouvain, true, "budget exceeded; community labels zeroed")
		return nil
	case out := <-done:
		assignCommunities(r, out.communities)
		r.Modularity = out.modularity
		return nil
	}
}

// assignCommunities renumbers to 0-contiguous ids by descending size,
// ties broken by each community's smallest member index.
func assignCommunities(r *Result, communities [][]int) {
	ordered := make([][]int, len(communities))
	copy(ordered, communities)
	for _, c := range ordered {
		sort.Ints(c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i][0] < ordered[j][0]
	})
	for id, comm := range ordered {
		for _, node := range comm {
			r.Community[node] = id
		}
	}
	r.CommunityCount = len(ordered)
}

// computeSCCs counts strongly connected components larger than one;
// those are the circular dependency groups the summary reports.
func computeSCCs(g *projection.Graph, r *Result) {
	if g.N() == 0 {
		return
	}
	for _, scc := range topo.TarjanSCC(toDirected(g)) {
		if len(scc) > 1 {
			r.CyclicSCCs++
		}
	}
}
