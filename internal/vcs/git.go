// Package vcs wraps the go-git surface the engine touches behind
// small interfaces so the history adapter and the tree content source
// can be exercised against mocks.
package vcs

import (
	"errors"
	"io"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoRepository is returned when a path is not inside a git
// repository.
var ErrNoRepository = errors.New("vcs: no repository")

// Commit is one commit in history.
type Commit interface {
	AuthorName() string
	When() time.Time
	// ChangedFiles returns the repo-relative paths touched by this
	// commit.
	ChangedFiles() ([]string, error)
}

// CommitIterator walks commits newest-first.
type CommitIterator interface {
	ForEach(func(Commit) error) error
	Close()
}

// Tree is a read-only file tree at a specific revision.
type Tree interface {
	File(path string) ([]byte, error)
	Files(func(path string) error) error
}

// Repository is an opened repository.
type Repository interface {
	// Root returns the worktree root path.
	Root() string
	// Log iterates commits reachable from HEAD, newest first,
	// optionally bounded by a since time.
	Log(since *time.Time) (CommitIterator, error)
	// TreeAt resolves a revision (branch, tag, hash) to its tree.
	TreeAt(rev string) (Tree, error)
}

// Opener opens repositories; swap it out in tests.
type Opener interface {
	PlainOpenWithDetect(path string) (Repository, error)
}

// GitOpener opens repositories with go-git, detecting .git in parent
// directories.
type GitOpener struct{}

// DefaultOpener returns the production opener.
func DefaultOpener() Opener { return GitOpener{} }

// PlainOpenWithDetect implements Opener.
func (GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, err
	}
	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}, nil
}

type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) Root() string { return r.root }

func (r *gitRepository) Log(since *time.Time) (CommitIterator, error) {
	iter, err := r.repo.Log(&git.LogOptions{Since: since})
	if err != nil {
		return nil, err
	}
	return &gitCommitIterator{iter: iter}, nil
}

func (r *gitRepository) TreeAt(rev string) (Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	return &gitTree{tree: tree}, nil
}

type gitCommitIterator struct {
	iter object.CommitIter
}

func (i *gitCommitIterator) ForEach(fn func(Commit) error) error {
	return i.iter.ForEach(func(c *object.Commit) error {
		return fn(&gitCommit{commit: c})
	})
}

func (i *gitCommitIterator) Close() { i.iter.Close() }

type gitCommit struct {
	commit *object.Commit
}

func (c *gitCommit) AuthorName() string { return c.commit.Author.Name }
func (c *gitCommit) When() time.Time    { return c.commit.Author.When }

func (c *gitCommit) ChangedFiles() ([]string, error) {
	stats, err := c.commit.Stats()
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(stats))
	for _, s := range stats {
		files = append(files, s.Name)
	}
	return files, nil
}

type gitTree struct {
	tree *object.Tree
}

func (t *gitTree) File(path string) ([]byte, error) {
	f, err := t.tree.File(path)
	if err != nil {
		return nil, err
	}
	reader, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (t *gitTree) Files(fn func(path string) error) error {
	iter := t.tree.Files()
	defer iter.Close()
	for {
		f, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(f.Name); err != nil {
			return err
		}
	}
}
