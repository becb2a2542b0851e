package cli

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
)

// lockPath returns the writer lock file guarding a database.
func lockPath(dbPath string) string {
	return dbPath + ".lock"
}

// acquireWriterLock takes the exclusive writer lock without waiting.
// A held lock means another process is analyzing into the same database.
func acquireWriterLock(dbPath string) (*flock.Flock, error) {
	lock := flock.New(lockPath(dbPath))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring writer lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is locked", domain.ErrAnalysisInProgress, dbPath)
	}
	return lock, nil
}

// lockedAnalyzer holds the writer lock for the duration of each write.
// Long-running servers use it so the lock is not held while idle.
type lockedAnalyzer struct {
	driving.Analyzer
	dbPath string
}

var _ driving.Analyzer = (*lockedAnalyzer)(nil)

func (a *lockedAnalyzer) AnalyzeFiles(ctx context.Context, paths []string) (*domain.AnalysisResult, error) {
	lock, err := acquireWriterLock(a.dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	return a.Analyzer.AnalyzeFiles(ctx, paths)
}

func (a *lockedAnalyzer) AnalyzeGit(ctx context.Context, repoPath string) (*domain.AnalysisResult, error) {
	lock, err := acquireWriterLock(a.dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	return a.Analyzer.AnalyzeGit(ctx, repoPath)
}
