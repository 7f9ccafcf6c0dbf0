// Package discovery walks a root directory, filters by extension and
// ignore rules, and returns UTF-8 content alongside each path's
// detected language. Ignore handling speaks gitignore syntax so a
// repository's own exclusions carry over.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/source"
)

// defaultIgnoredDirs are excluded regardless of ignore globs: VCS
// internals and platform-standard build output dirs.
var defaultIgnoredDirs = map[string]bool{
	".git": true, "node_modules": true, "target": true, "dist": true,
	"build": true, "__pycache__": true, ".hg": true, ".svn": true,
	"vendor": true, ".venv": true,
}

// File is one discovered source file: its absolute path, UTF-8
// content, and detected language.
type File struct {
	Path     string
	Content  []byte
	Language ast.Language
}

// Skipped records a file the discoverer chose not to emit, along with
// why. Feeds the build's diagnostics rather than aborting discovery.
type Skipped struct {
	Path   string
	Reason string
}

// Options configures one discovery pass. Extensions restricts results
// to files DetectLanguage maps to a language in this set (empty means
// "every known language"); IgnoreGlobs are additional gitignore-style
// patterns layered on top of the default exclusions and any discovered
// .gitignore files.
type Options struct {
	Extensions  []string
	IgnoreGlobs []string

	// Source supplies file content; nil reads the filesystem. Hosts
	// analyzing a committed revision pass a git tree source and keep
	// the same walk semantics.
	Source source.ContentSource
}

// Discover walks root and returns every matching file. A root that
// doesn't exist or isn't a directory is a fatal error; individual
// unreadable or non-UTF-8 files are skipped and reported, not fatal.
func Discover(root string, opts Options) ([]File, []Skipped, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, &fs.PathError{Op: "discover", Path: root, Err: fs.ErrInvalid}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, nil, err
	}

	matcher := buildMatcher(root, opts.IgnoreGlobs)
	allow := allowedLanguages(opts.Extensions)
	src := opts.Source
	if src == nil {
		src = source.NewFilesystem()
	}

	var files []File
	var skipped []Skipped

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(absRoot, path)

		if d.Type()&fs.ModeSymlink != 0 {
			// Symlinks are not followed: skip rather than resolve
			// and walk through.
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != absRoot && defaultIgnoredDirs[d.Name()] {
				return fs.SkipDir
			}
			if matcher != nil && matchGitignore(matcher, relPath, true) {
				return fs.SkipDir
			}
			return nil
		}

		if matcher != nil && matchGitignore(matcher, relPath, false) {
			return nil
		}

		lang := ast.DetectLanguage(path)
		if lang == ast.LangUnknown {
			return nil
		}
		if allow != nil && !allow[lang] {
			return nil
		}

		content, rerr := src.Read(path)
		if rerr != nil {
			skipped = append(skipped, Skipped{Path: path, Reason: "io: " + rerr.Error()})
			return nil
		}
		if looksBinary(content) {
			skipped = append(skipped, Skipped{Path: path, Reason: "binary"})
			return nil
		}
		if !utf8.Valid(content) {
			skipped = append(skipped, Skipped{Path: path, Reason: "not valid utf-8"})
			return nil
		}

		files = append(files, File{Path: path, Content: content, Language: lang})
		return nil
	})

	return files, skipped, walkErr
}

func allowedLanguages(extensions []string) map[ast.Language]bool {
	if len(extensions) == 0 {
		return nil
	}
	allow := make(map[ast.Language]bool, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allow[ast.DetectLanguage("x"+ext)] = true
	}
	return allow
}

func buildMatcher(root string, ignoreGlobs []string) gitignore.Matcher {
	var patterns []gitignore.Pattern
	for _, g := range ignoreGlobs {
		patterns = append(patterns, gitignore.ParsePattern(g, nil))
	}

	if gitRoot := findGitRoot(root); gitRoot != "" {
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
			patterns = append(patterns, gitPatterns...)
		}
	}

	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

func matchGitignore(m gitignore.Matcher, relPath string, isDir bool) bool {
	if relPath == "." || relPath == "" {
		return false
	}
	parts := strings.Split(relPath, string(filepath.Separator))
	return m.Match(parts, isDir)
}

func findGitRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// looksBinary applies the same heuristic most line-oriented tools use:
// a NUL byte anywhere in the first chunk means "binary".
func looksBinary(content []byte) bool {
	n := len(content)
	if n > 8000 {
		n = 8000
	}
	for i := 0; i < n; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
