package graphbuild

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/topograph-dev/topograph/pkg/ast"
)

// defaultProbeExtensions is the fixed probe order used when the build
// has no explicit extension allowlist. TypeScript before JavaScript
// mirrors how bundler resolution orders siblings with the same stem.
var defaultProbeExtensions = []string{
	".ts", ".tsx", ".js", ".mjs", ".cjs", ".jsx", ".py", ".c", ".h",
}

// scriptingExtensions are the only ones that get the /index.<ext>
// directory probe.
var scriptingExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".mjs": true, ".cjs": true, ".jsx": true,
}

// resolver answers "which discovered file does this relative import
// land on" against the build's file universe.
type resolver struct {
	files map[string]string // slash-canonical path -> file node id
	exts  []string
}

func newResolver(byID map[string]ast.SyntacticNode, extensions []string) *resolver {
	r := &resolver{
		files: make(map[string]string),
		exts:  normalizeExtensions(extensions),
	}
	for id, n := range byID {
		if n.Kind == ast.KindFile {
			r.files[canonical(n.File)] = id
		}
	}
	return r
}

// resolve probes in order: exact path, each allowed extension
// appended, then /index.<ext> for directory targets. The first hit in
// the discovered file set wins.
func (r *resolver) resolve(fromPath, raw string) (string, bool) {
	base := path.Dir(canonical(fromPath))
	target := path.Join(base, relativePath(raw))

	if id, ok := r.files[target]; ok {
		return id, true
	}
	for _, ext := range r.exts {
		if id, ok := r.files[target+ext]; ok {
			return id, true
		}
	}
	for _, ext := range r.exts {
		if !scriptingExtensions[ext] {
			continue
		}
		if id, ok := r.files[target+"/index"+ext]; ok {
			return id, true
		}
	}
	return "", false
}

// relativePath turns a raw module string into a filesystem-relative
// path. JS and quoted C includes are already path-shaped; Python's
// dotted relative form (".util", "..pkg.mod") needs translating: each
// leading dot past the first climbs one directory, the remainder's
// dots become separators.
func relativePath(raw string) string {
	if strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") || strings.HasPrefix(raw, "/") {
		return raw
	}
	if !strings.HasPrefix(raw, ".") {
		return raw
	}

	dots := 0
	for dots < len(raw) && raw[dots] == '.' {
		dots++
	}
	rest := strings.ReplaceAll(raw[dots:], ".", "/")
	up := strings.Repeat("../", dots-1)
	if rest == "" {
		return strings.TrimSuffix(up, "/")
	}
	return up + rest
}

func canonical(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

func normalizeExtensions(extensions []string) []string {
	if len(extensions) == 0 {
		return defaultProbeExtensions
	}
	out := make([]string, 0, len(extensions))
	seen := make(map[string]bool, len(extensions))
	// Keep the caller's extensions but in the default probe order so
	// resolution stays deterministic regardless of allowlist order.
	for _, ext := range defaultProbeExtensions {
		for _, e := range extensions {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if e == ext && !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	if len(out) == 0 {
		return defaultProbeExtensions
	}
	return out
}
