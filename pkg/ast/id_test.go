package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeIDIsDeterministic(t *testing.T) {
	a := NodeID("/p/a.ts", KindFunction, "handler", 10)
	b := NodeID("/p/a.ts", KindFunction, "handler", 10)
	assert.Equal(t, a, b)
}

func TestNodeIDDistinguishesTupleFields(t *testing.T) {
	base := NodeID("/p/a.ts", KindFunction, "handler", 10)
	assert.NotEqual(t, base, NodeID("/p/b.ts", KindFunction, "handler", 10))
	assert.NotEqual(t, base, NodeID("/p/a.ts", KindMethod, "handler", 10))
	assert.NotEqual(t, base, NodeID("/p/a.ts", KindFunction, "other", 10))
	assert.NotEqual(t, base, NodeID("/p/a.ts", KindFunction, "handler", 11))
}

func TestNodeIDSeparatorsPreventAmbiguity(t *testing.T) {
	// Concatenation without separators would collide these tuples.
	assert.NotEqual(t,
		NodeID("/p/a.ts", KindClass, "AB", 1),
		NodeID("/p/a.ts", KindClass, "A", 1))
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"a.ts", LangTypeScript},
		{"a.tsx", LangTSX},
		{"a.js", LangJavaScript},
		{"a.mjs", LangJavaScript},
		{"a.cjs", LangJavaScript},
		{"a.jsx", LangJavaScript},
		{"a.py", LangPython},
		{"a.c", LangC},
		{"a.h", LangC},
		{"A.TS", LangTypeScript},
		{"a.rs", LangUnknown},
		{"Makefile", LangUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.path), tt.path)
	}
}

func TestExtensionsRoundTrip(t *testing.T) {
	for _, ext := range Extensions(LangJavaScript) {
		assert.Equal(t, LangJavaScript, DetectLanguage("x"+ext))
	}
	assert.ElementsMatch(t, []string{".py"}, Extensions(LangPython))
}

func TestDefaultWeightByKind(t *testing.T) {
	assert.Equal(t, 1.0, DefaultWeight(RelContains))
	assert.Equal(t, 2.0, DefaultWeight(RelImports))
	assert.Equal(t, 3.0, DefaultWeight(RelExtends))
	assert.Equal(t, 3.0, DefaultWeight(RelImplements))
	assert.Equal(t, 1.5, DefaultWeight(RelCalls))
	assert.Equal(t, 1.0, DefaultWeight(RelationshipKind("Custom")))
}

func TestAllNodesIncludesFileFirst(t *testing.T) {
	pf := ParsedFile{
		FileNode:   SyntacticNode{ID: "f"},
		InnerNodes: []SyntacticNode{{ID: "a"}, {ID: "b"}},
	}
	nodes := pf.AllNodes()
	assert.Equal(t, "f", nodes[0].ID)
	assert.Len(t, nodes, 3)
}
