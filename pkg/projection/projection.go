// Package projection derives the typed subgraphs the analytics engine
// runs on: the weighted directed imports projection over File nodes,
// and the optional calls projection over Function/Method nodes.
//
// A projection is plain slices over dense local indices. Adjacency is
// precomputed both ways so algorithms traverse without map lookups,
// the same shape the union graph itself uses.
package projection

import (
	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/graphbuild"
)

// Arc is one weighted directed edge inside a projection, addressed by
// projection-local index.
type Arc struct {
	To     int
	Weight float64
}

// Graph is an immutable node-restricted, edge-filtered view of the
// union graph. Local indices are assigned by ascending union index,
// so they inherit the union graph's deterministic ordering.
type Graph struct {
	// UnionIndex maps a local index back to the union graph's dense
	// index.
	UnionIndex []int

	Out [][]Arc
	In  [][]Arc

	local map[int]int
}

// N returns the node count.
func (g *Graph) N() int { return len(g.UnionIndex) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, arcs := range g.Out {
		total += len(arcs)
	}
	return total
}

// LocalIndex returns the projection-local index for a union index.
func (g *Graph) LocalIndex(unionIdx int) (int, bool) {
	i, ok := g.local[unionIdx]
	return i, ok
}

// Undirected returns neighbor sets ignoring direction, deduplicated.
// Several metrics (k-core, clustering, Louvain) run on this view.
func (g *Graph) Undirected() [][]int {
	neighbors := make([][]int, g.N())
	seen := make([]map[int]bool, g.N())
	for i := range seen {
		seen[i] = make(map[int]bool)
	}
	add := func(a, b int) {
		if a == b || seen[a][b] {
			return
		}
		seen[a][b] = true
		neighbors[a] = append(neighbors[a], b)
	}
	for from, arcs := range g.Out {
		for _, arc := range arcs {
			add(from, arc.To)
			add(arc.To, from)
		}
	}
	return neighbors
}

// UndirectedWeights returns symmetric edge weights keyed by local
// index pair with a < b; antiparallel edges sum.
func (g *Graph) UndirectedWeights() map[[2]int]float64 {
	weights := make(map[[2]int]float64)
	for from, arcs := range g.Out {
		for _, arc := range arcs {
			if from == arc.To {
				continue
			}
			a, b := from, arc.To
			if a > b {
				a, b = b, a
			}
			weights[[2]int{a, b}] += arc.Weight
		}
	}
	return weights
}

// Imports builds the weighted directed graph induced by Imports edges
// over File nodes. Edge weight is the count of resolving
// descriptors, exactly as the builder coalesced them.
func Imports(ug *graphbuild.UnionGraph) *Graph {
	keep := func(n *graphbuild.Node) bool { return n.Kind == ast.KindFile }
	edge := func(e *graphbuild.Edge) bool { return e.Kind == ast.RelImports }
	return project(ug, keep, edge)
}

// Calls builds the directed graph induced by Calls edges over Function
// and Method nodes. It may be empty in a first-class build; every
// consumer must tolerate N() == 0.
func Calls(ug *graphbuild.UnionGraph) *Graph {
	keep := func(n *graphbuild.Node) bool {
		return n.Kind == ast.KindFunction || n.Kind == ast.KindMethod
	}
	edge := func(e *graphbuild.Edge) bool { return e.Kind == ast.RelCalls }
	return project(ug, keep, edge)
}

func project(ug *graphbuild.UnionGraph, keep func(*graphbuild.Node) bool, edge func(*graphbuild.Edge) bool) *Graph {
	g := &Graph{local: make(map[int]int)}
	for i := range ug.Nodes {
		if keep(&ug.Nodes[i]) {
			g.local[i] = len(g.UnionIndex)
			g.UnionIndex = append(g.UnionIndex, i)
		}
	}
	g.Out = make([][]Arc, len(g.UnionIndex))
	g.In = make([][]Arc, len(g.UnionIndex))

	for i := range ug.Edges {
		e := &ug.Edges[i]
		if !edge(e) {
			continue
		}
		src, okS := g.local[e.Source]
		dst, okD := g.local[e.Target]
		if !okS || !okD {
			// The builder's dangling-edge policy guarantees both
			// endpoints exist in the union; an edge can still fall
			// outside the projection's node restriction.
			continue
		}
		g.Out[src] = append(g.Out[src], Arc{To: dst, Weight: e.Weight})
		g.In[dst] = append(g.In[dst], Arc{To: src, Weight: e.Weight})
	}
	return g
}
