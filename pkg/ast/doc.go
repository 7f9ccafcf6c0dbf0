// Package ast defines the language-agnostic node and relationship types
// produced by language parsers and consumed by the graph builder.
//
// A SyntacticNode is immutable once created; its id is a deterministic
// hash of (canonical path, kind, name, start line), so the same source
// tree always yields the same ids regardless of discovery order.
package ast
