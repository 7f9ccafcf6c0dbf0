// Package treesitter holds the tree-sitter plumbing shared by the
// language family parsers: small AST traversal and text-extraction
// utilities, just what the registered families need.
package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Visitor is called for each node during Walk; returning false skips
// that node's children.
type Visitor func(node *sitter.Node) bool

// Walk traverses the AST depth-first, calling visitor for each node.
func Walk(node *sitter.Node, visitor Visitor) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(i), visitor)
	}
}

// FindNodesByType collects every node of the given type under root.
func FindNodesByType(root *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() == nodeType {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Text extracts the source text spanned by a node, tolerating nil
// nodes and out-of-range byte offsets instead of panicking.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// StartLine returns a node's 1-based start line.
func StartLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns a node's 1-based end line.
func EndLine(node *sitter.Node) int {
	return int(node.EndPoint().Row) + 1
}

// Unquote strips a single layer of matching quote characters from a
// string-literal node's text, as tree-sitter returns the quotes as
// part of the token.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
