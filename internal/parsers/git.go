package parsers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

const shortHashLength = 7

// ParseGit returns one chunk per commit message reachable from branch and
// authored at or after since, plus the HEAD hash of the repository. An empty
// branch means the checked-out branch; a zero since means all history.
func (p *Parser) ParseGit(ctx context.Context, repoPath, branch string, since time.Time) ([]domain.Chunk, string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, "", fmt.Errorf("open repository %s: %w", repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, "", fmt.Errorf("resolve HEAD of %s: %w", repoPath, err)
	}

	if branch == "" {
		if !head.Name().IsBranch() {
			return nil, "", fmt.Errorf("%w: %s has a detached HEAD, set a branch", domain.ErrInvalidInput, repoPath)
		}
		branch = head.Name().Short()
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, "", fmt.Errorf("resolve branch %s: %w", branch, err)
	}

	opts := &git.LogOptions{From: ref.Hash()}
	if !since.IsZero() {
		opts.Since = &since
	}
	iter, err := repo.Log(opts)
	if err != nil {
		return nil, "", fmt.Errorf("read log of %s: %w", branch, err)
	}
	defer iter.Close()

	var chunks []domain.Chunk
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		message := strings.TrimSpace(c.Message)
		if message == "" {
			return nil
		}
		hash := c.Hash.String()
		chunks = append(chunks, domain.Chunk{
			Text:       message,
			SourceType: domain.SourceTypeGit,
			SourceFile: fmt.Sprintf("%s@%s", repoPath, hash[:shortHashLength]),
			Metadata: map[string]any{
				"commit": hash,
				"author": c.Author.Name,
				"date":   c.Author.When.UTC().Format(time.RFC3339),
				"branch": branch,
			},
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	logger.Debug("Read %d commits from %s (%s)", len(chunks), repoPath, branch)
	return chunks, head.Hash().String(), nil
}

var sinceParser = newSinceParser()

func newSinceParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseSince resolves a commit window start such as "30 days ago",
// "last week" or "2024-03-01" relative to now. An empty phrase means no
// lower bound and returns the zero time.
func ParseSince(phrase string, now time.Time) (time.Time, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, phrase, now.Location()); err == nil {
			return t, nil
		}
	}

	result, err := sinceParser.Parse(phrase, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse since %q: %w", phrase, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("%w: cannot understand since %q", domain.ErrInvalidInput, phrase)
	}
	if result.Time.After(now) {
		return time.Time{}, fmt.Errorf("%w: since %q is in the future", domain.ErrInvalidInput, phrase)
	}
	return result.Time, nil
}

// IsRepository reports whether path is the root of a git work tree.
func IsRepository(path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}
