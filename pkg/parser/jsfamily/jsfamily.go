// Package jsfamily implements the curly-brace scripting family:
// JavaScript and TypeScript (including TSX), sharing one
// tree-sitter-backed extraction pass since all three grammars expose
// the same node shapes for the constructs this package extracts.
package jsfamily

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/topograph-dev/topograph/internal/treesitter"
	"github.com/topograph-dev/topograph/pkg/ast"
)

var (
	funcDeclTypes  = map[string]bool{"function_declaration": true, "generator_function_declaration": true}
	classDeclTypes = map[string]bool{"class_declaration": true}
	methodTypes    = map[string]bool{"method_definition": true}
	importTypes    = map[string]bool{"import_statement": true}
	branchTypes    = map[string]bool{
		"if_statement": true, "for_statement": true, "for_in_statement": true,
		"while_statement": true, "do_statement": true, "switch_case": true,
		"catch_clause": true, "ternary_expression": true,
		"binary_expression": true, // counts && / || as decision points too
	}
)

// Parser extracts syntactic entities for one language within the
// curly-brace scripting family.
type Parser struct {
	lang ast.Language
	ts   *sitter.Language
}

// New returns a parser bound to lang, which must be one of
// LangJavaScript, LangTypeScript, or LangTSX.
func New(lang ast.Language) *Parser {
	var ts *sitter.Language
	switch lang {
	case ast.LangTypeScript:
		ts = typescript.GetLanguage()
	case ast.LangTSX:
		ts = tsx.GetLanguage()
	default:
		ts = javascript.GetLanguage()
	}
	return &Parser{lang: lang, ts: ts}
}

// SupportedExtensions implements parser.Parser.
func (p *Parser) SupportedExtensions() []string {
	return ast.Extensions(p.lang)
}

// Parse implements parser.Parser. It is pure and thread-safe: each
// call builds its own tree-sitter parser instance.
func (p *Parser) Parse(path string, content []byte) (*ast.ParsedFile, error) {
	sp := sitter.NewParser()
	sp.SetLanguage(p.ts)
	tree, err := sp.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return &ast.ParsedFile{
			Path:        path,
			FileNode:    fileNode(path, content),
			ParseErrors: []ast.ParseError{{Message: fmt.Sprintf("parse failed: %v", err)}},
		}, nil
	}
	root := tree.RootNode()

	pf := &ast.ParsedFile{
		Path:     path,
		FileNode: fileNode(path, content),
	}
	if root.HasError() {
		pf.ParseErrors = append(pf.ParseErrors, ast.ParseError{Message: "syntax error in source"})
	}

	classStack := map[*sitter.Node]string{} // class node -> its SyntacticNode id

	treesitter.Walk(root, func(n *sitter.Node) bool {
		switch {
		case funcDeclTypes[n.Type()]:
			fn := extractFunction(n, content, path)
			pf.InnerNodes = append(pf.InnerNodes, fn)
			pf.Relations = append(pf.Relations, contains(pf.FileNode.ID, fn.ID))
			pf.Metrics.Functions++
			return true

		case classDeclTypes[n.Type()]:
			cls := extractClass(n, content, path)
			pf.InnerNodes = append(pf.InnerNodes, cls)
			pf.Relations = append(pf.Relations, contains(pf.FileNode.ID, cls.ID))
			pf.Metrics.Classes++
			classStack[n] = cls.ID

			if heritage := n.ChildByFieldName("superclass"); heritage != nil {
				name := treesitter.Text(heritage, content)
				pf.Relations = append(pf.Relations, ast.Relationship{
					SourceID: cls.ID,
					TargetID: ast.NodeID(path, ast.KindClass, name, 0),
					Kind:     ast.RelExtends,
				})
			}

			if body := n.ChildByFieldName("body"); body != nil {
				for i := 0; i < int(body.ChildCount()); i++ {
					member := body.Child(i)
					if methodTypes[member.Type()] {
						m := extractMethod(member, content, path)
						pf.InnerNodes = append(pf.InnerNodes, m)
						pf.Relations = append(pf.Relations, contains(cls.ID, m.ID))
						pf.Metrics.Functions++
					}
				}
			}
			return false // members handled above; don't also walk as top-level

		case n.Type() == "lexical_declaration" || n.Type() == "variable_declaration":
			if !atModuleLevel(n) {
				return true
			}
			for i := 0; i < int(n.NamedChildCount()); i++ {
				decl := n.NamedChild(i)
				if decl.Type() != "variable_declarator" {
					continue
				}
				nameNode := decl.ChildByFieldName("name")
				if nameNode == nil || nameNode.Type() != "identifier" {
					continue
				}
				v := extractVariable(nameNode, n, content, path)
				pf.InnerNodes = append(pf.InnerNodes, v)
				pf.Relations = append(pf.Relations, contains(pf.FileNode.ID, v.ID))
			}
			return true

		case importTypes[n.Type()]:
			if imp, ok := extractImport(n, content); ok {
				pf.Imports = append(pf.Imports, imp)
				pf.Metrics.Imports++
			}
			return true

		case n.Type() == "export_statement":
			pf.Metrics.Exports++
			return true

		case branchTypes[n.Type()]:
			if n.Type() == "binary_expression" {
				op := n.ChildByFieldName("operator")
				if op == nil || (op.Type() != "&&" && op.Type() != "||") {
					return true
				}
			}
			pf.Metrics.Complexity++
			return true
		}
		return true
	})

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

func contains(sourceID, targetID string) ast.Relationship {
	return ast.Relationship{SourceID: sourceID, TargetID: targetID, Kind: ast.RelContains}
}

func extractFunction(n *sitter.Node, source []byte, path string) ast.SyntacticNode {
	name := "<anonymous>"
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = treesitter.Text(nameNode, source)
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

func extractMethod(n *sitter.Node, source []byte, path string) ast.SyntacticNode {
	name := "<anonymous>"
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = treesitter.Text(nameNode, source)
	}
	return ast.SyntacticNode{
		ID:        ast.NodeID(path, ast.KindMethod, name, treesitter.StartLine(n)),
		Kind:      ast.KindMethod,
		Name:      name,
		File:      path,
		StartLine: treesitter.StartLine(n),
		EndLine:   treesitter.EndLine(n),
	}
}

func extractClass(n *sitter.Node, source []byte, path string) ast.SyntacticNode {
	name := "<anonymous>"
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = treesitter.Text(nameNode, source)
	}
	return ast.SyntacticNode{
		ID:        ast.NodeID(path, ast.KindClass, name, treesitter.StartLine(n)),
		Kind:      ast.KindClass,
		Name:      name,
		File:      path,
		StartLine: treesitter.StartLine(n),
		EndLine:   treesitter.EndLine(n),
	}
}

// atModuleLevel reports whether a declaration sits directly under the
// program root, possibly wrapped in an export statement. Declarations
// inside function or class bodies are not module-level entities.
func atModuleLevel(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	if parent.Type() == "program" {
		return true
	}
	return parent.Type() == "export_statement" &&
		parent.Parent() != nil && parent.Parent().Type() == "program"
}

func extractVariable(nameNode, decl *sitter.Node, source []byte, path string) ast.SyntacticNode {
	name := treesitter.Text(nameNode, source)
	return ast.SyntacticNode{
		ID:        ast.NodeID(path, ast.KindVariable, name, treesitter.StartLine(decl)),
		Kind:      ast.KindVariable,
		Name:      name,
		File:      path,
		StartLine: treesitter.StartLine(decl),
		EndLine:   treesitter.EndLine(decl),
	}
}

func extractImport(n *sitter.Node, source []byte) (ast.ImportDescriptor, bool) {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return ast.ImportDescriptor{}, false
	}
	raw := treesitter.Unquote(treesitter.Text(sourceNode, source))
	if raw == "" {
		return ast.ImportDescriptor{}, false
	}

	style := ast.StyleBare
	if strings.HasPrefix(raw, ".") || strings.HasPrefix(raw, "/") {
		style = ast.StyleRelative
	}

	var symbols []string
	if clause := n.ChildByFieldName("import"); clause != nil {
		treesitter.Walk(clause, func(c *sitter.Node) bool {
			if c.Type() == "identifier" {
				symbols = append(symbols, treesitter.Text(c, source))
			}
			return true
		})
	}

	return ast.ImportDescriptor{
		RawModule: raw,
		Symbols:   symbols,
		Line:      treesitter.StartLine(n),
		Style:     style,
	}, true
}
