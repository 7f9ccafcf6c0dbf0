// Package models holds the plain-record graph shapes an AnalysisResult
// carries over the wire: nodes and edges as flat JSON-serializable
// structs, decoupled from the engine's internal dense-index tables.
package models

import (
	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/graphbuild"
)

// GraphNode is one node record.
type GraphNode struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     ast.NodeKind      `json:"kind"`
	File     string            `json:"file"`
	Line     int               `json:"line,omitempty"`
	Language ast.Language      `json:"language,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GraphEdge is one coalesced relationship record; From and To carry
// node ids, not dense indices.
type GraphEdge struct {
	From   string               `json:"from"`
	To     string               `json:"to"`
	Kind   ast.RelationshipKind `json:"kind"`
	Weight float64              `json:"weight,omitempty"`
}

// DependencyGraph is the full plain-record graph.
type DependencyGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// FromUnion flattens a union graph into wire records, in the union's
// deterministic node and edge order.
func FromUnion(ug *graphbuild.UnionGraph) DependencyGraph {
	g := DependencyGraph{
		Nodes: make([]GraphNode, len(ug.Nodes)),
		Edges: make([]GraphEdge, len(ug.Edges)),
	}
	for i, n := range ug.Nodes {
		g.Nodes[i] = GraphNode{
			ID:       n.ID,
			Name:     n.Name,
			Kind:     n.Kind,
			File:     n.File,
			Line:     n.StartLine,
			Language: n.Language,
			Metadata: n.Metadata,
		}
	}
	for i, e := range ug.Edges {
		g.Edges[i] = GraphEdge{
			From:   ug.Nodes[e.Source].ID,
			To:     ug.Nodes[e.Target].ID,
			Kind:   e.Kind,
			Weight: e.Weight,
		}
	}
	return g
}

// ToMermaid renders the graph as a Mermaid diagram, the text form the
// CLI's graph command prints.
func (g *DependencyGraph) ToMermaid() string {
	result := "graph TD\n"
	for _, node := range g.Nodes {
		label := node.Name
		if label == "" {
			label = node.ID
		}
		result += "    " + sanitizeMermaidID(node.ID) + "[\"" + label + "\"]\n"
	}
	for _, edge := range g.Edges {
		arrow := "-->"
		switch edge.Kind {
		case ast.RelExtends, ast.RelImplements:
			arrow = "-.->|inherits|"
		case ast.RelCalls:
			arrow = "-->|calls|"
		}
		result += "    " + sanitizeMermaidID(edge.From) + " " + arrow + " " + sanitizeMermaidID(edge.To) + "\n"
	}
	return result
}

// sanitizeMermaidID makes an ID safe for Mermaid.
func sanitizeMermaidID(id string) string {
	result := ""
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result += string(c)
		} else {
			result += "_"
		}
	}
	return result
}
