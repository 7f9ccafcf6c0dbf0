package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/graphbuild"
)

func union(t *testing.T) *graphbuild.UnionGraph {
	t.Helper()
	mk := func(path string, imports ...ast.ImportDescriptor) *ast.ParsedFile {
		return &ast.ParsedFile{
			Path: path,
			FileNode: ast.SyntacticNode{
				ID:   ast.NodeID(path, ast.KindFile, path, 0),
				Kind: ast.KindFile, Name: path, File: path, StartLine: 1,
			},
			Imports: imports,
		}
	}
	g, _, err := graphbuild.Build([]*ast.ParsedFile{
		mk("/p/a.ts", ast.ImportDescriptor{RawModule: "./b", Style: ast.StyleRelative}),
		mk("/p/b.ts"),
	}, graphbuild.Options{})
	require.NoError(t, err)
	return g
}

func TestFromUnionFlattens(t *testing.T) {
	ug := union(t)
	g := FromUnion(ug)

	assert.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, ast.RelImports, g.Edges[0].Kind)
	assert.Equal(t, 1.0, g.Edges[0].Weight)

	ids := map[string]bool{}
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	assert.True(t, ids[g.Edges[0].From])
	assert.True(t, ids[g.Edges[0].To])
}

func TestToMermaid(t *testing.T) {
	g := DependencyGraph{
		Nodes: []GraphNode{
			{ID: "n-1", Name: "a.ts"},
			{ID: "n-2", Name: "b.ts"},
		},
		Edges: []GraphEdge{
			{From: "n-1", To: "n-2", Kind: ast.RelImports},
		},
	}

	out := g.ToMermaid()
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `n_1["a.ts"]`)
	assert.Contains(t, out, "n_1 --> n_2")
}

func TestToMermaidInheritArrow(t *testing.T) {
	g := DependencyGraph{
		Nodes: []GraphNode{{ID: "a"}, {ID: "b"}},
		Edges: []GraphEdge{{From: "a", To: "b", Kind: ast.RelExtends}},
	}
	assert.Contains(t, g.ToMermaid(), "a -.->|inherits| b")
}
