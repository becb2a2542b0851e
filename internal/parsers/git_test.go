package parsers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

type testCommit struct {
	message string
	when    time.Time
}

func initRepo(t *testing.T, commits ...testCommit) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	hashes := make([]string, 0, len(commits))
	for i, c := range commits {
		name := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(name, []byte(strings.Repeat("x", i+1)), 0o600))
		_, err := wt.Add("file.txt")
		require.NoError(t, err)
		hash, err := wt.Commit(c.message, &git.CommitOptions{
			Author: &object.Signature{Name: "Dev", Email: "dev@example.com", When: c.when},
		})
		require.NoError(t, err)
		hashes = append(hashes, hash.String())
	}
	return dir, hashes
}

func TestParser_ParseGit(t *testing.T) {
	now := time.Now()
	dir, hashes := initRepo(t,
		testCommit{"Initial import", now.Add(-60 * 24 * time.Hour)},
		testCommit{"TODO: add retries to the sync job\n\nFollow-up from review.", now.Add(-2 * time.Hour)},
		testCommit{"Fix login timeout", now.Add(-time.Hour)},
	)

	chunks, head, err := New().ParseGit(context.Background(), dir, "", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, hashes[2], head)

	require.Len(t, chunks, 2, "the old commit is outside the window")
	assert.Equal(t, "Fix login timeout", chunks[0].Text)
	assert.Equal(t, domain.SourceTypeGit, chunks[0].SourceType)
	assert.Equal(t, dir+"@"+hashes[2][:7], chunks[0].SourceFile)
	assert.Equal(t, hashes[2], chunks[0].Metadata["commit"])
	assert.Equal(t, "Dev", chunks[0].Metadata["author"])
	assert.Equal(t, "TODO: add retries to the sync job\n\nFollow-up from review.", chunks[1].Text)
}

func TestParser_ParseGit_AllHistoryOnNamedBranch(t *testing.T) {
	now := time.Now()
	dir, _ := initRepo(t,
		testCommit{"First", now.Add(-400 * 24 * time.Hour)},
		testCommit{"Second", now},
	)

	chunks, _, err := New().ParseGit(context.Background(), dir, "master", time.Time{})
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "master", chunks[0].Metadata["branch"])
}

func TestParser_ParseGit_Errors(t *testing.T) {
	p := New()

	_, _, err := p.ParseGit(context.Background(), t.TempDir(), "", time.Time{})
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)

	dir, _ := initRepo(t, testCommit{"Only", time.Now()})
	_, _, err = p.ParseGit(context.Background(), dir, "does-not-exist", time.Time{})
	assert.Error(t, err)
}

func TestIsRepository(t *testing.T) {
	dir, _ := initRepo(t, testCommit{"Only", time.Now()})
	assert.True(t, IsRepository(dir))
	assert.False(t, IsRepository(t.TempDir()))
}

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	got, err := ParseSince("", now)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = ParseSince("2025-03-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseSince("30 days ago", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.AddDate(0, 0, -30), got, 24*time.Hour)

	_, err = ParseSince("blue moon", now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
