// Package pyfamily implements the indentation-based family: Python.
package pyfamily

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/topograph-dev/topograph/internal/treesitter"
	"github.com/topograph-dev/topograph/pkg/ast"
)

var branchTypes = map[string]bool{
	"if_statement": true, "for_statement": true, "while_statement": true,
	"except_clause": true, "conditional_expression": true, "boolean_operator": true,
	"with_statement": true,
}

// Parser extracts syntactic entities from Python source.
type Parser struct{}

// New returns a Python parser.
func New() *Parser { return &Parser{} }

// SupportedExtensions implements parser.Parser.
func (p *Parser) SupportedExtensions() []string { return ast.Extensions(ast.LangPython) }

// Parse implements parser.Parser.
func (p *Parser) Parse(path string, content []byte) (*ast.ParsedFile, error) {
	sp := sitter.NewParser()
	sp.SetLanguage(python.GetLanguage())
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

	// Module-level statements live directly under the module node;
	// classes need their own walk so methods attach to the class, not
	// to the file, and so nested defs inside a class aren't recounted
	// as module-level functions.
	for i := 0; i < int(root.ChildCount()); i++ {
		walkTop(root.Child(i), content, path, pf, pf.FileNode.ID)
	}

	treesitter.Walk(root, func(n *sitter.Node) bool {
		if branchTypes[n.Type()] {
			pf.Metrics.Complexity++
		}
		return true
	})

	pf.Metrics.LinesOfCode = strings.Count(string(content), "\n") + 1
	return pf, nil
}

func walkTop(n *sitter.Node, source []byte, path string, pf *ast.ParsedFile, parentID string) {
	switch n.Type() {
	case "function_definition":
		fn := extractDef(n, source, path, ast.KindFunction)
		pf.InnerNodes = append(pf.InnerNodes, fn)
		pf.Relations = append(pf.Relations, contains(parentID, fn.ID))
		pf.Metrics.Functions++

	case "class_definition":
		cls := extractDef(n, source, path, ast.KindClass)
		pf.InnerNodes = append(pf.InnerNodes, cls)
		pf.Relations = append(pf.Relations, contains(parentID, cls.ID))
		pf.Metrics.Classes++

		if bases := n.ChildByFieldName("superclasses"); bases != nil {
			treesitter.Walk(bases, func(c *sitter.Node) bool {
				if c.Type() == "identifier" {
					name := treesitter.Text(c, source)
					pf.Relations = append(pf.Relations, ast.Relationship{
						SourceID: cls.ID,
						TargetID: ast.NodeID(path, ast.KindClass, name, 0),
						Kind:     ast.RelExtends,
					})
				}
				return true
			})
		}

		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				member := body.Child(i)
				if member.Type() == "function_definition" {
					m := extractDef(member, source, path, ast.KindMethod)
					pf.InnerNodes = append(pf.InnerNodes, m)
					pf.Relations = append(pf.Relations, contains(cls.ID, m.ID))
					pf.Metrics.Functions++
				}
			}
		}

	case "import_statement", "import_from_statement":
		for _, imp := range extractImports(n, source) {
			pf.Imports = append(pf.Imports, imp)
			pf.Metrics.Imports++
		}

	case "expression_statement":
		// Module-level `__all__ = [...]` is the closest Python analogue
		// to an explicit export list; count it toward Exports.
		if strings.Contains(treesitter.Text(n, source), "__all__") {
			pf.Metrics.Exports++
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			assign := n.NamedChild(i)
			if assign.Type() != "assignment" {
				continue
			}
			left := assign.ChildByFieldName("left")
			if left == nil || left.Type() != "identifier" {
				continue
			}
			name := treesitter.Text(left, source)
			v := ast.SyntacticNode{
				ID:        ast.NodeID(path, ast.KindVariable, name, treesitter.StartLine(n)),
				Kind:      ast.KindVariable,
				Name:      name,
				File:      path,
				StartLine: treesitter.StartLine(n),
				EndLine:   treesitter.EndLine(n),
			}
			pf.InnerNodes = append(pf.InnerNodes, v)
			pf.Relations = append(pf.Relations, contains(parentID, v.ID))
		}
	}
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

func contains(sourceID, targetID string) ast.Relationship {
	return ast.Relationship{SourceID: sourceID, TargetID: targetID, Kind: ast.RelContains}
}

func extractDef(n *sitter.Node, source []byte, path string, kind ast.NodeKind) ast.SyntacticNode {
	name := "<anonymous>"
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = treesitter.Text(nameNode, source)
	}
	return ast.SyntacticNode{
		ID:        ast.NodeID(path, kind, name, treesitter.StartLine(n)),
		Kind:      kind,
		Name:      name,
		File:      path,
		StartLine: treesitter.StartLine(n),
		EndLine:   treesitter.EndLine(n),
	}
}

// extractImports handles both `import a, b.c`, which yields one
// descriptor per dotted module name, and `from .util import A, B`, which
// is one statement for one module and so yields a single descriptor
// carrying both symbols.
func extractImports(n *sitter.Node, source []byte) []ast.ImportDescriptor {
	line := treesitter.StartLine(n)

	if n.Type() == "import_from_statement" {
		modNode := n.ChildByFieldName("module_name")
		if modNode == nil {
			return nil
		}
		raw := treesitter.Text(modNode, source)
		var symbols []string
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() == "dotted_name" && c != modNode {
				symbols = append(symbols, treesitter.Text(c, source))
			}
			if c.Type() == "aliased_import" {
				symbols = append(symbols, treesitter.Text(c, source))
			}
		}
		return []ast.ImportDescriptor{{
			RawModule: raw,
			Symbols:   symbols,
			Line:      line,
			Style:     styleFor(raw),
		}}
	}

	// Plain `import a, b.c`: one descriptor per dotted module name.
	var out []ast.ImportDescriptor
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "dotted_name" || c.Type() == "aliased_import" {
			raw := treesitter.Text(c, source)
			out = append(out, ast.ImportDescriptor{
				RawModule: raw,
				Line:      line,
				Style:     styleFor(raw),
			})
		}
	}
	return out
}

func styleFor(raw string) ast.ImportStyle {
	if strings.HasPrefix(raw, ".") {
		return ast.StyleRelative
	}
	return ast.StyleBare
}
