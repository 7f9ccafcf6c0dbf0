package jsfamily

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topograph-dev/topograph/pkg/ast"
)

func TestParseRelativeAndBareImports(t *testing.T) {
	src := []byte(`import React from 'react';
import './local';
`)
	p := New(ast.LangJavaScript)
	pf, err := p.Parse("/p/app.js", src)
	require.NoError(t, err)
	require.Len(t, pf.Imports, 2)

	assert.Equal(t, "react", pf.Imports[0].RawModule)
	assert.Equal(t, ast.StyleBare, pf.Imports[0].Style)

	assert.Equal(t, "./local", pf.Imports[1].RawModule)
	assert.Equal(t, ast.StyleRelative, pf.Imports[1].Style)
}

func TestParseClassWithMethods(t *testing.T) {
	src := []byte(`class Widget {
  render() {}
  destroy() {}
}
`)
	p := New(ast.LangTypeScript)
	pf, err := p.Parse("/p/widget.ts", src)
	require.NoError(t, err)

	var classes, methods int
	for _, n := range pf.InnerNodes {
		switch n.Kind {
		case ast.KindClass:
			classes++
			assert.Equal(t, "Widget", n.Name)
		case ast.KindMethod:
			methods++
		}
	}
	assert.Equal(t, 1, classes)
	assert.Equal(t, 2, methods)

	var containsCount int
	for _, r := range pf.Relations {
		if r.Kind == ast.RelContains {
			containsCount++
		}
	}
	assert.Equal(t, 3, containsCount) // file->class, class->method x2
}

func TestModuleLevelVariables(t *testing.T) {
	src := []byte(`export const x = 1;
const y = 2;
function f() {
  const local = 3;
}
`)
	p := New(ast.LangTypeScript)
	pf, err := p.Parse("/p/vars.ts", src)
	require.NoError(t, err)

	var names []string
	for _, n := range pf.InnerNodes {
		if n.Kind == ast.KindVariable {
			names = append(names, n.Name)
		}
	}
	assert.ElementsMatch(t, []string{"x", "y"}, names, "function-local declarations must not surface")
}

func TestParseErrorIsLocalized(t *testing.T) {
	src := []byte(`function broken( {`)
	p := New(ast.LangTypeScript)
	pf, err := p.Parse("/p/broken.ts", src)
	require.NoError(t, err)
	assert.Equal(t, "broken.ts", pf.FileNode.Name)
	assert.NotEmpty(t, pf.ParseErrors)
}
