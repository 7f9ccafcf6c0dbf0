// Package history is the optional repository-history adapter: it
// walks recent commits to derive per-file churn (change counts) and
// owner counts, the two quality signals that come from version
// control. A missing repository is not an error for the
// build; the engine just runs without these signals and their
// composite weights redistribute.
package history

import (
	"context"
	"path/filepath"
	"time"

	"github.com/topograph-dev/topograph/internal/vcs"
)

// DefaultDays is the history window when the caller doesn't set one,
// matching the common churn-analysis default.
const DefaultDays = 90

// maxCommits caps the walk so pathological histories stay bounded.
const maxCommits = 2000

// stopIteration terminates the commit walk early once the cap is
// reached; it never escapes Collect.
type stopIteration struct{}

func (stopIteration) Error() string { return "stop iteration" }

// Signals holds per-file history-derived metrics, keyed by absolute
// path.
type Signals struct {
	commits map[string]int
	authors map[string]map[string]struct{}
}

// Commits returns the number of recent commits touching path.
func (s *Signals) Commits(path string) int {
	return s.commits[filepath.ToSlash(path)]
}

// Owners returns the number of distinct recent authors of path.
func (s *Signals) Owners(path string) int {
	return len(s.authors[filepath.ToSlash(path)])
}

// Options configures collection.
type Options struct {
	// Days bounds the history window; zero means DefaultDays.
	Days int
	// Opener is swapped for a mock in tests; nil uses go-git.
	Opener vcs.Opener
}

// Collect walks the repository containing root and aggregates churn
// and ownership per file. Returns vcs.ErrNoRepository when root is
// not inside a repository; the caller treats that as "signals absent",
// not as a failed build.
func Collect(ctx context.Context, root string, opts Options) (*Signals, error) {
	opener := opts.Opener
	if opener == nil {
		opener = vcs.DefaultOpener()
	}
	days := opts.Days
	if days <= 0 {
		days = DefaultDays
	}

	repo, err := opener.PlainOpenWithDetect(root)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days)
	iter, err := repo.Log(&since)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	s := &Signals{
		commits: make(map[string]int),
		authors: make(map[string]map[string]struct{}),
	}
	repoRoot := filepath.ToSlash(repo.Root())

	seen := 0
	err = iter.ForEach(func(c vcs.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen >= maxCommits {
			return stopIteration{}
		}
		seen++

		files, err := c.ChangedFiles()
		if err != nil {
			// A commit whose diff can't be computed (e.g. missing
			// objects in a shallow clone) is skipped, not fatal.
			return nil
		}
		author := c.AuthorName()
		for _, rel := range files {
			abs := repoRoot + "/" + filepath.ToSlash(rel)
			s.commits[abs]++
			set, ok := s.authors[abs]
			if !ok {
				set = make(map[string]struct{}, 1)
				s.authors[abs] = set
			}
			set[author] = struct{}{}
		}
		return nil
	})
	if err != nil {
		if _, stopped := err.(stopIteration); !stopped {
			return nil, err
		}
	}
	return s, nil
}
