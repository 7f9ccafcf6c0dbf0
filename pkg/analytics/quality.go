package analytics

import (
	"github.com/topograph-dev/topograph/pkg/graphbuild"
	"github.com/topograph-dev/topograph/pkg/history"
	"github.com/topograph-dev/topograph/pkg/projection"
)

// attachQuality copies the per-file quality signals onto the
// projection's local indices: lines of code and branch-count
// complexity from the parsers, churn and owner counts from the
// repository-history adapter when one ran. Coverage has no source in
// this build and stays zero, excluded from composite weighting.
func attachQuality(g *projection.Graph, ug *graphbuild.UnionGraph, signals *history.Signals, r *Result) {
	for local, unionIdx := range g.UnionIndex {
		node := &ug.Nodes[unionIdx]
		r.LOC[local] = node.Metrics.LinesOfCode
		r.Complexity[local] = node.Metrics.Complexity
	}

	if signals == nil {
		return
	}
	r.HasChurn = true
	r.HasOwners = true
	for local, unionIdx := range g.UnionIndex {
		path := ug.Nodes[unionIdx].File
		r.Churn[local] = signals.Commits(path)
		r.Owners[local] = signals.Owners(path)
	}
}
