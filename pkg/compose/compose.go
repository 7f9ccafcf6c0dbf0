// Package compose is the pipeline's final stage: it robust-normalizes
// the raw metric vectors, combines them into the four composite
// indices, and assembles the versioned per-node output record plus
// the build summary.
package compose

import (
	"github.com/topograph-dev/topograph/pkg/analytics"
	"github.com/topograph-dev/topograph/pkg/graphbuild"
	"github.com/topograph-dev/topograph/pkg/projection"
)

// Version is the per-node DTO's major version; consumers pin to it.
const Version = 1

// HighRiskThreshold marks a node as high-risk in the summary.
const HighRiskThreshold = 0.7

// Raw carries every raw scalar at original scale.
type Raw struct {
	PagerankImports float64  `json:"pagerankImports"`
	PagerankCalls   *float64 `json:"pagerankCalls,omitempty"`
	Indegree        int      `json:"indegree"`
	Outdegree       int      `json:"outdegree"`
	KCore           int      `json:"kCore"`
	Clustering      float64  `json:"clustering"`
	Betweenness     float64  `json:"betweenness"`
	Churn           int      `json:"churn"`
	Complexity      int      `json:"complexity"`
	Owners          int      `json:"owners"`
	Coverage        float64  `json:"coverage"`
}

// Normalized carries the normalized scalars, each in [0,1]. Every
// column is robust-normalized except PagerankCalls, which is the raw
// calls-projection PageRank clamped to [0,1].
type Normalized struct {
	PagerankImports float64  `json:"pagerankImports"`
	PagerankCalls   *float64 `json:"pagerankCalls,omitempty"`
	Indegree        float64  `json:"indegree"`
	KCore           float64  `json:"kCore"`
	Clustering      float64  `json:"clustering"`
	Betweenness     float64  `json:"betweenness"`
	Churn           float64  `json:"churn"`
	Complexity      float64  `json:"complexity"`
	Owners          float64  `json:"owners"`
	Coverage        float64  `json:"coverage"`
}

// NodeRecord is the versioned per-node DTO. Field names are part of
// the public contract and stable across minor versions.
type NodeRecord struct {
	Version   int    `json:"version"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	NodeType  string `json:"nodeType"`
	Community int    `json:"community"`

	Importance float64 `json:"importance"`
	Risk       float64 `json:"risk"`
	Chokepoint float64 `json:"chokepoint"`
	Payoff     float64 `json:"payoff"`

	Raw        Raw        `json:"raw"`
	Normalized Normalized `json:"normalized"`
}

// Summary aggregates one build.
type Summary struct {
	TotalNodes         int     `json:"totalNodes"`
	TotalEdges         int     `json:"totalEdges"`
	CommunityCount     int     `json:"communityCount"`
	Modularity         float64 `json:"modularity"`
	AvgComplexity      float64 `json:"avgComplexity"`
	HighRiskCount      int     `json:"highRiskCount"`
	CircularGroups     int     `json:"circularGroups"`
	BetweennessPartial bool    `json:"betweennessPartial,omitempty"`
}

// input bundles one composite term: its configured weight, the
// normalized value, and whether the underlying signal exists at all.
// Absent inputs redistribute their weight proportionally among the
// present ones so the sum of weights stays 1.
type input struct {
	weight  float64
	value   float64
	present bool
}

func convex(inputs ...input) float64 {
	total := 0.0
	for _, in := range inputs {
		if in.present {
			total += in.weight
		}
	}
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, in := range inputs {
		if in.present {
			sum += in.weight / total * in.value
		}
	}
	return clamp01(sum)
}

// Compose builds the per-node records and summary from an analytics
// result over the imports projection. callsPagerank maps union-graph
// node indices to calls-projection PageRank and may be nil or empty; a
// record's optional pagerankCalls fields are set only when its node
// has an entry there.
func Compose(g *projection.Graph, ug *graphbuild.UnionGraph, r *analytics.Result, callsPagerank map[int]float64) ([]NodeRecord, Summary) {
	n := g.N()

	prN := normalizeColumn(r.PageRank)
	inN := normalizeColumn(intsToFloats(r.InDegree))
	kN := normalizeColumn(intsToFloats(r.KCore))
	clN := normalizeColumn(r.Clustering)
	btN := normalizeColumn(r.Betweenness)
	chN := normalizeColumn(intsToFloats(r.Churn))
	cxN := normalizeColumn(intsToFloats(r.Complexity))
	owN := normalizeColumn(intsToFloats(r.Owners))
	cvN := normalizeColumn(r.Coverage)

	// Structural absence per column. Betweenness and clustering are
	// undefined below three nodes; churn/owners need a repository;
	// coverage has no source in this build.
	hasBetweenness := n >= 3
	hasClustering := n >= 3
	hasCoverage := false

	records := make([]NodeRecord, n)
	sumComplexity := 0.0
	for i := 0; i < n; i++ {
		node := &ug.Nodes[g.UnionIndex[i]]

		importance := convex(
			input{0.40, prN[i], true},
			input{0.20, inN[i], true},
			input{0.20, kN[i], true},
			input{0.10, clN[i], hasClustering},
			input{0.10, btN[i], hasBetweenness},
		)
		chokepoint := convex(
			input{0.50, btN[i], hasBetweenness},
			input{0.30, kN[i], true},
			input{0.20, 1 - clN[i], hasClustering},
		)
		risk := convex(
			input{0.30, chN[i], r.HasChurn},
			input{0.30, cxN[i], true},
			input{0.20, 1 - owN[i], r.HasOwners},
			input{0.20, 1 - cvN[i], hasCoverage},
		)
		payoff := clamp01(importance * (1 - risk))

		rec := NodeRecord{
			Version:    Version,
			Path:       node.File,
			Name:       node.Name,
			NodeType:   string(node.Kind),
			Community:  r.Community[i],
			Importance: importance,
			Risk:       risk,
			Chokepoint: chokepoint,
			Payoff:     payoff,
			Raw: Raw{
				PagerankImports: r.PageRank[i],
				Indegree:        r.InDegree[i],
				Outdegree:       r.OutDegree[i],
				KCore:           r.KCore[i],
				Clustering:      r.Clustering[i],
				Betweenness:     r.Betweenness[i],
				Churn:           r.Churn[i],
				Complexity:      r.Complexity[i],
				Owners:          r.Owners[i],
				Coverage:        r.Coverage[i],
			},
			Normalized: Normalized{
				PagerankImports: prN[i],
				Indegree:        inN[i],
				KCore:           kN[i],
				Clustering:      clN[i],
				Betweenness:     btN[i],
				Churn:           chN[i],
				Complexity:      cxN[i],
				Owners:          owN[i],
				Coverage:        cvN[i],
			},
		}
		if pc, ok := callsPagerank[g.UnionIndex[i]]; ok {
			v := pc
			rec.Raw.PagerankCalls = &v
			nv := clamp01(pc)
			rec.Normalized.PagerankCalls = &nv
		}
		records[i] = rec
		sumComplexity += float64(r.Complexity[i])
	}

	summary := Summary{
		TotalNodes:         n,
		TotalEdges:         g.EdgeCount(),
		CommunityCount:     r.CommunityCount,
		Modularity:         r.Modularity,
		CircularGroups:     r.CyclicSCCs,
		BetweennessPartial: r.BetweennessPartial,
	}
	if n > 0 {
		summary.AvgComplexity = sumComplexity / float64(n)
	}
	for i := range records {
		if records[i].Risk > HighRiskThreshold {
			summary.HighRiskCount++
		}
	}
	return records, summary
}
