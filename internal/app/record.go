package app

import (
	"context"
	"fmt"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/gitops"
)

// Record flushes pending writes, appends the activity log and, when
// git.auto_commit is on and the data directory is a repository, commits it.
// Nothing is logged when the flush fails.
func (a *App) Record(ctx context.Context, message string, entries ...activitylog.Entry) error {
	if err := a.Flush(ctx); err != nil {
		return err
	}
	now := a.Now()
	for i := range entries {
		if entries[i].Timestamp.IsZero() {
			entries[i].Timestamp = now
		}
	}
	if err := activitylog.Append(a.DataDir, entries...); err != nil {
		return fmt.Errorf("activity log: %w", err)
	}
	if !a.Config.Git.AutoCommit || !gitops.IsRepo(a.DataDir) {
		return nil
	}
	author := gitops.Author{Name: a.Config.Git.AuthorName, Email: a.Config.Git.AuthorEmail}
	hash, err := gitops.CommitAll(ctx, a.DataDir, message, author)
	if err != nil {
		return fmt.Errorf("auto commit: %w", err)
	}
	if hash != "" {
		a.Log.Debug().Str("commit", hash).Msg("data committed")
	}
	return nil
}
