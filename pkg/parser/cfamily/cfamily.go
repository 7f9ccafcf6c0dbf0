// Package cfamily implements the systems header-oriented family: C.
package cfamily

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/topograph-dev/topograph/internal/treesitter"
	"github.com/topograph-dev/topograph/pkg/ast"
)

var branchTypes = map[string]bool{
	"if_statement": true, "for_statement": true, "while_statement": true,
	"do_statement": true, "case_statement": true, "conditional_expression": true,
}

// Parser extracts syntactic entities from C source.
type Parser struct{}

// New returns a C parser.
func New() *Parser { return &Parser{} }

// SupportedExtensions implements parser.Parser.
func (p *Parser) SupportedExtensions() []string { return ast.Extensions(ast.LangC) }

// Parse implements parser.Parser.
func (p *Parser) Parse(path string, content []byte) (*ast.ParsedFile, error) {
	sp := sitter.NewParser()
	sp.SetLanguage(c.GetLanguage())
	tree, err := sp.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return &ast.ParsedFile{
			Path:        path,
			FileNode:    fileNode(path, content),
			ParseErrors: []ast.ParseError{{Message: fmt.Sprintf("parse failed: %v", err)}},
		}, nil
	}
	root := tree.RootNode()

	pf := &ast.ParsedFile{Path: path, FileNode: fileNode(path, content)}
	if root.HasError() {
		pf.ParseErrors = append(pf.ParseErrors, ast.ParseError{Message: "syntax error in source"})
	}

	treesitter.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_definition":
			fn := extractFunction(n, content, path)
			pf.InnerNodes = append(pf.InnerNodes, fn)
			pf.Relations = append(pf.Relations, ast.Relationship{
				SourceID: pf.FileNode.ID, TargetID: fn.ID, Kind: ast.RelContains,
			})
			pf.Metrics.Functions++
			return false // descend separately below to count branches in body

		case "preproc_include":
			if imp, ok := extractInclude(n, content); ok {
				pf.Imports = append(pf.Imports, imp)
				pf.Metrics.Imports++
			}
			return true

		case "declaration":
			// Only translation-unit-level declarations become Variable
			// nodes; locals inside function bodies stay anonymous.
			if n.Parent() == nil || n.Parent().Type() != "translation_unit" {
				return true
			}
			for _, v := range extractDeclarators(n, content, path) {
				pf.InnerNodes = append(pf.InnerNodes, v)
				pf.Relations = append(pf.Relations, ast.Relationship{
					SourceID: pf.FileNode.ID, TargetID: v.ID, Kind: ast.RelContains,
				})
			}
			return true

		case "struct_specifier":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := treesitter.Text(nameNode, content)
				s := ast.SyntacticNode{
					ID:        ast.NodeID(path, ast.KindClass, name, treesitter.StartLine(n)),
					Kind:      ast.KindClass,
					Name:      name,
					File:      path,
					StartLine: treesitter.StartLine(n),
					EndLine:   treesitter.EndLine(n),
				}
				pf.InnerNodes = append(pf.InnerNodes, s)
				pf.Relations = append(pf.Relations, ast.Relationship{
					SourceID: pf.FileNode.ID, TargetID: s.ID, Kind: ast.RelContains,
				})
				pf.Metrics.Classes++
			}
			return true
		}

		if branchTypes[n.Type()] {
			pf.Metrics.Complexity++
		}
		return true
	})

	// Second pass just for branch counting inside function bodies, since
	// the walk above stops descending at function_definition to avoid
	// double-counting declarators as nested functions.
	for _, fnNode := range treesitter.FindNodesByType(root, "function_definition") {
		treesitter.Walk(fnNode, func(n *sitter.Node) bool {
			if branchTypes[n.Type()] {
				pf.Metrics.Complexity++
			}
			return true
		})
	}

	pf.Metrics.LinesOfCode = strings.Count(string(content), "\n") + 1
	return pf, nil
}

func fileNode(path string, content []byte) ast.SyntacticNode {
	lines := strings.Count(string(content), "\n") + 1
	return ast.SyntacticNode{
		ID:        ast.NodeID(path, ast.KindFile, path, 0),
		Kind:      ast.KindFile,
		Name:      filepath.Base(path),
		File:      path,
		StartLine: 1,
		EndLine:   lines,
	}
}

func extractFunction(n *sitter.Node, source []byte, path string) ast.SyntacticNode {
	name := "<anonymous>"
	if declNode := n.ChildByFieldName("declarator"); declNode != nil {
		if inner := declNode.ChildByFieldName("declarator"); inner != nil {
			name = treesitter.Text(inner, source)
		} else {
			name = treesitter.Text(declNode, source)
		}
	}
	return ast.SyntacticNode{
		ID:        ast.NodeID(path, ast.KindFunction, name, treesitter.StartLine(n)),
		Kind:      ast.KindFunction,
		Name:      name,
		File:      path,
		StartLine: treesitter.StartLine(n),
		EndLine:   treesitter.EndLine(n),
	}
}

// extractDeclarators collects the identifiers a file-scope declaration
// introduces, handling both `int x;` and `int x = 1, y = 2;` forms.
func extractDeclarators(n *sitter.Node, source []byte, path string) []ast.SyntacticNode {
	var out []ast.SyntacticNode
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		var nameNode *sitter.Node
		switch child.Type() {
		case "init_declarator":
			nameNode = child.ChildByFieldName("declarator")
		case "identifier":
			nameNode = child
		default:
			continue
		}
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := treesitter.Text(nameNode, source)
		out = append(out, ast.SyntacticNode{
			ID:        ast.NodeID(path, ast.KindVariable, name, treesitter.StartLine(n)),
			Kind:      ast.KindVariable,
			Name:      name,
			File:      path,
			StartLine: treesitter.StartLine(n),
			EndLine:   treesitter.EndLine(n),
		})
	}
	return out
}

// extractInclude distinguishes `#include "local.h"` (relative) from
// `#include <system.h>` (system).
func extractInclude(n *sitter.Node, source []byte) (ast.ImportDescriptor, bool) {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return ast.ImportDescriptor{}, false
	}
	raw := treesitter.Text(pathNode, source)
	line := treesitter.StartLine(n)

	if strings.HasPrefix(raw, "\"") {
		return ast.ImportDescriptor{
			RawModule: treesitter.Unquote(raw),
			Line:      line,
			Style:     ast.StyleRelative,
		}, true
	}
	// system_lib_string already has the form <system.h>
	return ast.ImportDescriptor{
		RawModule: strings.Trim(raw, "<>"),
		Line:      line,
		Style:     ast.StyleSystem,
	}, true
}
