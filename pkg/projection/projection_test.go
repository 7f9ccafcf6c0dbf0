package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/graphbuild"
)

func buildChain(t *testing.T) *graphbuild.UnionGraph {
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
	rel := func(raw string) ast.ImportDescriptor {
		return ast.ImportDescriptor{RawModule: raw, Style: ast.StyleRelative}
	}
	g, _, err := graphbuild.Build([]*ast.ParsedFile{
		mk("/p/a.ts", rel("./b")),
		mk("/p/b.ts", rel("./c")),
		mk("/p/c.ts"),
	}, graphbuild.Options{})
	require.NoError(t, err)
	return g
}

func TestImportsProjectionOverFileNodes(t *testing.T) {
	ug := buildChain(t)
	p := Imports(ug)

	assert.Equal(t, 3, p.N())
	assert.Equal(t, 2, p.EdgeCount())

	// Every projected node must be a File node in the union graph.
	for _, ui := range p.UnionIndex {
		assert.Equal(t, ast.KindFile, ug.Nodes[ui].Kind)
	}

	// Edge endpoints all map back into the projection.
	for from, arcs := range p.Out {
		for _, arc := range arcs {
			assert.Less(t, arc.To, p.N())
			assert.GreaterOrEqual(t, from, 0)
		}
	}
}

func TestImportsProjectionExcludesInnerNodes(t *testing.T) {
	path := "/p/a.py"
	pf := &ast.ParsedFile{
		Path: path,
		FileNode: ast.SyntacticNode{
			ID:   ast.NodeID(path, ast.KindFile, path, 0),
			Kind: ast.KindFile, Name: path, File: path, StartLine: 1,
		},
	}
	cls := ast.SyntacticNode{
		ID: ast.NodeID(path, ast.KindClass, "C", 2), Kind: ast.KindClass,
		Name: "C", File: path, StartLine: 2,
	}
	pf.InnerNodes = []ast.SyntacticNode{cls}
	pf.Relations = []ast.Relationship{
		{SourceID: pf.FileNode.ID, TargetID: cls.ID, Kind: ast.RelContains},
	}

	ug, _, err := graphbuild.Build([]*ast.ParsedFile{pf}, graphbuild.Options{})
	require.NoError(t, err)

	p := Imports(ug)
	assert.Equal(t, 1, p.N())
	assert.Equal(t, 0, p.EdgeCount())
}

func TestCallsProjectionMayBeEmpty(t *testing.T) {
	ug := buildChain(t)
	p := Calls(ug)
	assert.Equal(t, 0, p.N())
	assert.Equal(t, 0, p.EdgeCount())
}

func TestUndirectedViewDeduplicates(t *testing.T) {
	ug := buildChain(t)
	p := Imports(ug)

	und := p.Undirected()
	// Chain a->b->c: b has two undirected neighbors, a and c have one.
	degrees := make([]int, p.N())
	for i, ns := range und {
		degrees[i] = len(ns)
	}
	total := 0
	for _, d := range degrees {
		total += d
	}
	assert.Equal(t, 4, total) // 2 undirected edges, counted from both sides
}

func TestUndirectedWeightsSumAntiparallel(t *testing.T) {
	g := &Graph{
		UnionIndex: []int{0, 1},
		Out: [][]Arc{
			{{To: 1, Weight: 2}},
			{{To: 0, Weight: 3}},
		},
		In: [][]Arc{
			{{To: 1, Weight: 3}},
			{{To: 0, Weight: 2}},
		},
	}
	w := g.UndirectedWeights()
	require.Len(t, w, 1)
	assert.Equal(t, 5.0, w[[2]int{0, 1}])
}
