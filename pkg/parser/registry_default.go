package parser

import (
	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/parser/cfamily"
	"github.com/topograph-dev/topograph/pkg/parser/jsfamily"
	"github.com/topograph-dev/topograph/pkg/parser/pyfamily"
)

// DefaultRegistry wires the three built-in families. Adding a fourth
// language is registering one more Parser here; nothing else in the
// pipeline changes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ast.LangJavaScript, jsfamily.New(ast.LangJavaScript))
	r.Register(ast.LangTypeScript, jsfamily.New(ast.LangTypeScript))
	r.Register(ast.LangTSX, jsfamily.New(ast.LangTSX))
	r.Register(ast.LangPython, pyfamily.New())
	r.Register(ast.LangC, cfamily.New())
	return r
}
