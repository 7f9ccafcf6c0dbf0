package graphbuild

import (
	"fmt"

	"github.com/topograph-dev/topograph/pkg/ast"
)

// Node is one entry in the union graph's dense node table. Index is
// assigned once per build, by ascending node id, and is stable for the
// build's lifetime.
type Node struct {
	Index     int               `json:"index"`
	ID        string            `json:"id"`
	Kind      ast.NodeKind      `json:"kind"`
	Name      string            `json:"name"`
	File      string            `json:"file"`
	StartLine int               `json:"startLine"`
	Language  ast.Language      `json:"language"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	// Metrics is populated for File nodes only, from the parser's
	// per-file counts. Inner nodes carry a zero value.
	Metrics ast.FileMetrics `json:"-"`
}

// Edge is a coalesced relationship between two dense node indices. At
// most one Edge exists per (Source, Target, Kind) triple; duplicates
// are merged with their weights summed.
type Edge struct {
	Source int                  `json:"source"`
	Target int                  `json:"target"`
	Kind   ast.RelationshipKind `json:"kind"`
	Weight float64              `json:"weight"`
}

// UnionGraph is the output of a build: every node from every parsed
// file in one dense table, plus the coalesced relationship set. It is
// immutable after Build returns.
type UnionGraph struct {
	Nodes []Node
	Edges []Edge

	index map[string]int
}

// IndexOf returns the dense index for a node id.
func (g *UnionGraph) IndexOf(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// FileIndices returns the dense indices of all File nodes, ascending.
func (g *UnionGraph) FileIndices() []int {
	var out []int
	for i := range g.Nodes {
		if g.Nodes[i].Kind == ast.KindFile {
			out = append(out, i)
		}
	}
	return out
}

// UnresolvedImport records a relative import that matched no file in
// the discovered set. Non-fatal; counted in build diagnostics.
type UnresolvedImport struct {
	File      string `json:"file"`
	RawModule string `json:"rawModule"`
	Line      int    `json:"line"`
}

// ExternalImport records a bare or system import retained as metadata
// on its file: no edge is created to the discovered graph.
type ExternalImport struct {
	File      string          `json:"file"`
	RawModule string          `json:"rawModule"`
	Style     ast.ImportStyle `json:"style"`
	Line      int             `json:"line"`
}

// Diagnostics counts the non-fatal events of one build.
type Diagnostics struct {
	DroppedEdges      int
	UnresolvedImports []UnresolvedImport
	ExternalImports   []ExternalImport
}

// Error is a fatal build failure: a node-id collision with conflicting
// payloads, which indicates a parser bug rather than bad input.
type Error struct {
	NodeID string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("graphbuild: node %s: %s", e.NodeID, e.Detail)
}
