package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topograph-dev/topograph/internal/vcs"
)

type mockCommit struct {
	author string
	files  []string
}

func (c mockCommit) AuthorName() string { return c.author }
func (c mockCommit) When() time.Time    { return time.Now() }

func (c mockCommit) ChangedFiles() ([]string, error) { return c.files, nil }

type mockIterator struct {
	commits []mockCommit
}

func (i *mockIterator) ForEach(fn func(vcs.Commit) error) error {
	for _, c := range i.commits {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (i *mockIterator) Close() {}

type mockRepo struct {
	root    string
	commits []mockCommit
}

func (r *mockRepo) Root() string { return r.root }

func (r *mockRepo) Log(since *time.Time) (vcs.CommitIterator, error) {
	return &mockIterator{commits: r.commits}, nil
}

func (r *mockRepo) TreeAt(rev string) (vcs.Tree, error) { return nil, vcs.ErrNoRepository }

type mockOpener struct {
	repo *mockRepo
	err  error
}

func (o mockOpener) PlainOpenWithDetect(path string) (vcs.Repository, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.repo, nil
}

func TestCollectAggregatesChurnAndOwners(t *testing.T) {
	repo := &mockRepo{
		root: "/repo",
		commits: []mockCommit{
			{author: "ada", files: []string{"src/a.ts", "src/b.ts"}},
			{author: "bob", files: []string{"src/a.ts"}},
			{author: "ada", files: []string{"src/a.ts"}},
		},
	}

	s, err := Collect(context.Background(), "/repo", Options{Opener: mockOpener{repo: repo}})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Commits("/repo/src/a.ts"))
	assert.Equal(t, 2, s.Owners("/repo/src/a.ts"))
	assert.Equal(t, 1, s.Commits("/repo/src/b.ts"))
	assert.Equal(t, 1, s.Owners("/repo/src/b.ts"))
	assert.Equal(t, 0, s.Commits("/repo/src/missing.ts"))
	assert.Equal(t, 0, s.Owners("/repo/src/missing.ts"))
}

func TestCollectNoRepository(t *testing.T) {
	_, err := Collect(context.Background(), "/tmp/nowhere", Options{
		Opener: mockOpener{err: vcs.ErrNoRepository},
	})
	require.ErrorIs(t, err, vcs.ErrNoRepository)
}

func TestCollectHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &mockRepo{root: "/repo", commits: []mockCommit{{author: "ada", files: []string{"f"}}}}
	_, err := Collect(ctx, "/repo", Options{Opener: mockOpener{repo: repo}})
	require.ErrorIs(t, err, context.Canceled)
}
