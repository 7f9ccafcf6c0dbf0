// Package parser defines the Parser capability every language family
// implements and a Registry that dispatches by detected language.
//
// Polymorphism across languages is closed and flat: a parser only
// needs to expose the extensions
// it handles and a pure, thread-safe Parse function. The registry never
// needs a framework-level change to add a language: a new family just
// registers itself.
package parser

import (
	"fmt"

	"github.com/topograph-dev/topograph/pkg/ast"
)

// Parser is the capability every language family implements.
// Implementations must be pure and
// thread-safe; the registry may invoke Parse on any goroutine.
type Parser interface {
	SupportedExtensions() []string
	Parse(path string, content []byte) (*ast.ParsedFile, error)
}

// Registry dispatches a file path to the parser registered for its
// detected language.
type Registry struct {
	byLang map[ast.Language]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byLang: make(map[ast.Language]Parser)}
}

// Register associates a parser with a language.
func (r *Registry) Register(lang ast.Language, p Parser) {
	r.byLang[lang] = p
}

// ParserFor returns the parser registered for path's detected
// language, or ok=false if none is registered (or the language is
// unknown to the extension table).
func (r *Registry) ParserFor(path string) (p Parser, lang ast.Language, ok bool) {
	lang = ast.DetectLanguage(path)
	if lang == ast.LangUnknown {
		return nil, lang, false
	}
	p, ok = r.byLang[lang]
	return p, lang, ok
}

// Parse dispatches to the registered parser for path's language.
func (r *Registry) Parse(path string, content []byte) (*ast.ParsedFile, error) {
	p, lang, ok := r.ParserFor(path)
	if !ok {
		return nil, fmt.Errorf("parser: no parser registered for %s (language %s)", path, lang)
	}
	return p.Parse(path, content)
}
